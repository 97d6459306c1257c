package transceiver

import (
	"fmt"
	"net"
)

// NetworkProbe reports whether the drone address is reachable from this host,
// it must return an error wrapping ErrNetworkUnavailable when it is not.
type NetworkProbe func(ip net.IP) error

// InterfaceProbe accepts ip when it is a loopback address or belongs to the
// subnet of an interface that is up.
func InterfaceProbe(ip net.IP) error {
	if ip.IsLoopback() {
		return nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("listing interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && ipNet.Contains(ip) {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: no interface routes to %s", ErrNetworkUnavailable, ip)
}
