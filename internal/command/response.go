package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a typed reply to a read command
type Value struct {
	Kind     ResponseKind
	Text     string        // trimmed response body
	Int      int           // Speed, Battery and WiFiSignal
	Duration time.Duration // Time
}

func (v Value) String() string {
	switch v.Kind {
	case ResponseSpeed, ResponseBattery, ResponseWiFiSignal:
		return strconv.Itoa(v.Int)
	case ResponseTime:
		return v.Duration.String()
	default:
		return v.Text
	}
}

// ParseResponse interprets a response body for the given rule.
// "error ..." replies yield *ProtocolError; ResponseOk rules expect "ok".
func ParseResponse(rule *Rule, body string) (*Value, error) {
	text := strings.TrimSpace(body)

	if lower := strings.ToLower(text); lower == "error" || strings.HasPrefix(lower, "error ") {
		return nil, &ProtocolError{Message: strings.TrimSpace(text[len("error"):])}
	}

	value := Value{Kind: rule.response, Text: text}

	switch rule.response {
	case ResponseNone:
		return &value, nil

	case ResponseOk:
		if !strings.EqualFold(text, "ok") {
			return nil, fmt.Errorf("%w: expected ok: %q", ErrUnexpectedResponse, text)
		}

	case ResponseSpeed, ResponseBattery, ResponseWiFiSignal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: expected number for %s: %q", ErrUnexpectedResponse, rule.response, text)
		}
		value.Int = int(math.Round(f))

	case ResponseTime:
		seconds, err := strconv.Atoi(strings.TrimSuffix(text, "s"))
		if err != nil {
			return nil, fmt.Errorf("%w: expected seconds: %q", ErrUnexpectedResponse, text)
		}
		value.Duration = time.Duration(seconds) * time.Second

	case ResponseSdkVersion, ResponseSerial:
		if text == "" {
			return nil, fmt.Errorf("%w: empty %s", ErrUnexpectedResponse, rule.response)
		}
	}

	return &value, nil
}
