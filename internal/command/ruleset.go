package command

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	DistanceMin = 20  // cm
	DistanceMax = 500 // cm
	DegreesMin  = 1
	DegreesMax  = 360
	SpeedMin    = 10 // cm/s
	SpeedMax    = 100
	CurveSpeed  = 60 // cm/s, maximum for curve
	CoordMax    = 500
	StickMax    = 100

	controlTimeout  = 5 * time.Second
	airTimeout      = 20 * time.Second // takeoff and land take a while
	movementTimeout = 20 * time.Second
	pathTimeout     = 30 * time.Second
	setTimeout      = 5 * time.Second
	readTimeout     = 3 * time.Second
	rcTimeout       = 0
)

// RuleSet is the immutable table of command rules. It is safe for concurrent use.
type RuleSet struct {
	byKind  map[Kind]*Rule
	byToken map[string]*Rule
}

var defaultRuleSet = sync.OnceValue(NewRuleSet)

// DefaultRuleSet returns a process wide rule set built on first use
func DefaultRuleSet() *RuleSet {
	return defaultRuleSet()
}

// NewRuleSet builds the Tello SDK 2.0 rule table
func NewRuleSet() *RuleSet {
	distance := intArg("distance", DistanceMin, DistanceMax)
	degrees := intArg("degrees", DegreesMin, DegreesMax)
	coord := func(name string) ArgumentRule { return intArg(name, -CoordMax, CoordMax) }
	stick := func(name string) ArgumentRule { return intArg(name, -StickMax, StickMax) }

	rules := []*Rule{
		// Control
		{kind: EnterSDKMode, token: "command", category: CategoryControl, timeout: controlTimeout},
		{kind: TakeOff, token: "takeoff", category: CategoryControl, timeout: airTimeout},
		{kind: Land, token: "land", category: CategoryControl, mustBeFlying: true, timeout: airTimeout},
		{kind: StartVideo, token: "streamon", category: CategoryControl, timeout: controlTimeout},
		{kind: StopVideo, token: "streamoff", category: CategoryControl, timeout: controlTimeout},
		{kind: EmergencyStop, token: "emergency", category: CategoryControl, timeout: controlTimeout},
		{kind: Hover, token: "stop", category: CategoryControl, mustBeFlying: true, timeout: controlTimeout},
		{kind: EnableMissionPads, token: "mon", category: CategoryControl, timeout: controlTimeout},
		{kind: DisableMissionPads, token: "moff", category: CategoryControl, timeout: controlTimeout},

		// Movement
		{kind: Up, token: "up", category: CategoryMovement, arguments: []ArgumentRule{distance}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Down, token: "down", category: CategoryMovement, arguments: []ArgumentRule{distance}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Left, token: "left", category: CategoryMovement, arguments: []ArgumentRule{distance}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Right, token: "right", category: CategoryMovement, arguments: []ArgumentRule{distance}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Forward, token: "forward", category: CategoryMovement, arguments: []ArgumentRule{distance}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Back, token: "back", category: CategoryMovement, arguments: []ArgumentRule{distance}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Clockwise, token: "cw", category: CategoryMovement, arguments: []ArgumentRule{degrees}, mustBeFlying: true, timeout: movementTimeout},
		{kind: CounterClockwise, token: "ccw", category: CategoryMovement, arguments: []ArgumentRule{degrees}, mustBeFlying: true, timeout: movementTimeout},
		{kind: Flip, token: "flip", category: CategoryMovement, arguments: []ArgumentRule{enumArg("direction", "l", "r", "f", "b")}, mustBeFlying: true, timeout: movementTimeout},
		{
			kind: Go, token: "go", category: CategoryMovement,
			arguments:    []ArgumentRule{coord("x"), coord("y"), coord("z"), intArg("speed", SpeedMin, SpeedMax)},
			mustBeFlying: true, timeout: pathTimeout,
		},
		{
			kind: Curve, token: "curve", category: CategoryMovement,
			arguments: []ArgumentRule{
				coord("x1"), coord("y1"), coord("z1"),
				coord("x2"), coord("y2"), coord("z2"),
				intArg("speed", SpeedMin, CurveSpeed),
			},
			mustBeFlying: true, timeout: pathTimeout,
		},

		// Set
		{kind: SetSpeed, token: "speed", category: CategorySet, arguments: []ArgumentRule{intArg("speed", SpeedMin, SpeedMax)}, timeout: setTimeout},
		{
			kind: SetRemoteControl, token: "rc", category: CategorySet,
			arguments: []ArgumentRule{stick("leftRight"), stick("forwardBackward"), stick("upDown"), stick("yaw")},
			response:  ResponseNone, mustBeFlying: true, timeout: rcTimeout,
		},
		{kind: SetWiFi, token: "wifi", category: CategorySet, arguments: []ArgumentRule{stringArg("ssid", 1, 32), stringArg("password", 8, 63)}, timeout: setTimeout},
		{kind: SetMissionPadDirection, token: "mdirection", category: CategorySet, arguments: []ArgumentRule{intArg("direction", 0, 2)}, timeout: setTimeout},

		// Read
		{kind: GetSpeed, token: "speed?", category: CategoryRead, response: ResponseSpeed, timeout: readTimeout},
		{kind: GetBattery, token: "battery?", category: CategoryRead, response: ResponseBattery, timeout: readTimeout},
		{kind: GetTime, token: "time?", category: CategoryRead, response: ResponseTime, timeout: readTimeout},
		{kind: GetWiFiSNR, token: "wifi?", category: CategoryRead, response: ResponseWiFiSignal, timeout: readTimeout},
		{kind: GetSDKVersion, token: "sdk?", category: CategoryRead, response: ResponseSdkVersion, timeout: readTimeout},
		{kind: GetSerialNumber, token: "sn?", category: CategoryRead, response: ResponseSerial, timeout: readTimeout},
	}

	rs := RuleSet{
		byKind:  make(map[Kind]*Rule, len(rules)),
		byToken: make(map[string]*Rule, len(rules)),
	}
	for _, r := range rules {
		rs.byKind[r.kind] = r
		rs.byToken[r.token] = r
	}

	return &rs
}

// Rule returns the rule for a command kind
func (rs *RuleSet) Rule(kind Kind) (*Rule, error) {
	r, ok := rs.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, kind)
	}
	return r, nil
}

// Lookup returns the rule for a wire text token, e.g. "cw"
func (rs *RuleSet) Lookup(token string) (*Rule, error) {
	r, ok := rs.byToken[strings.ToLower(token)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, token)
	}
	return r, nil
}

// Rules returns all rules ordered by kind
func (rs *RuleSet) Rules() []*Rule {
	rules := make([]*Rule, 0, len(rs.byKind))
	for _, r := range rs.byKind {
		rules = append(rules, r)
	}
	slices.SortFunc(rules, func(a, b *Rule) int { return int(a.kind) - int(b.kind) })
	return rules
}

// Validate checks args against the rule of kind and builds a Command.
// No I/O is done; errors are *ValidationError wrapping one of the ErrArgument* sentinels.
func (rs *RuleSet) Validate(kind Kind, args ...any) (*Command, error) {
	rule, err := rs.Rule(kind)
	if err != nil {
		return nil, err
	}
	return newCommand(rule, args)
}

// Parse builds a Command from wire text, e.g. "forward 100"
func (rs *RuleSet) Parse(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command line", ErrUnknownCommand)
	}

	rule, err := rs.Lookup(fields[0])
	if err != nil {
		return nil, err
	}

	values := fields[1:]
	if len(values) != rule.Arity() {
		return nil, newValidationError(rule.kind, -1, ErrArgumentMismatch, fmt.Sprintf("expected %d arguments, %d given", rule.Arity(), len(values)))
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = rule.arguments[i].parse(v)
	}
	return newCommand(rule, args)
}
