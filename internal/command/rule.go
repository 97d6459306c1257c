package command

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	ArgInt ArgumentType = iota
	ArgString
	ArgEnum
)

// ArgumentType is the expected Go type of a command argument
type ArgumentType int

// ArgumentRule describes a single positional argument.
// For ArgInt, Min and Max are an inclusive value range. For ArgString they bound
// the string length. ArgEnum accepts one of Allowed.
type ArgumentRule struct {
	Name    string
	Type    ArgumentType
	Min     int
	Max     int
	Allowed []string
}

func intArg(name string, min, max int) ArgumentRule {
	return ArgumentRule{Name: name, Type: ArgInt, Min: min, Max: max}
}

func stringArg(name string, minLen, maxLen int) ArgumentRule {
	return ArgumentRule{Name: name, Type: ArgString, Min: minLen, Max: maxLen}
}

func enumArg(name string, allowed ...string) ArgumentRule {
	return ArgumentRule{Name: name, Type: ArgEnum, Allowed: allowed}
}

// validate checks a single argument value against the rule.
func (a ArgumentRule) validate(kind Kind, index int, v any) error {
	if v == nil {
		return newValidationError(kind, index, ErrArgumentNull, a.Name)
	}

	switch a.Type {
	case ArgInt:
		n, isInt, fits := toInt(v)
		if !isInt {
			return newValidationError(kind, index, ErrArgumentMismatch, fmt.Sprintf("%s must be an integer, %T given", a.Name, v))
		}
		if !fits {
			return newValidationError(kind, index, ErrArgumentOutOfRange, fmt.Sprintf("%s must be between %d and %d: %v given", a.Name, a.Min, a.Max, v))
		}
		if n < a.Min || n > a.Max {
			return newValidationError(kind, index, ErrArgumentOutOfRange, fmt.Sprintf("%s must be between %d and %d: %d given", a.Name, a.Min, a.Max, n))
		}

	case ArgString:
		s, ok := v.(string)
		if !ok {
			return newValidationError(kind, index, ErrArgumentMismatch, fmt.Sprintf("%s must be a string, %T given", a.Name, v))
		}
		if strings.ContainsAny(s, " \t\r\n") {
			return newValidationError(kind, index, ErrArgumentMismatch, fmt.Sprintf("%s must not contain whitespace", a.Name))
		}
		if len(s) < a.Min || len(s) > a.Max {
			return newValidationError(kind, index, ErrArgumentOutOfRange, fmt.Sprintf("%s length must be between %d and %d: %d given", a.Name, a.Min, a.Max, len(s)))
		}

	case ArgEnum:
		s, ok := v.(string)
		if !ok {
			return newValidationError(kind, index, ErrArgumentMismatch, fmt.Sprintf("%s must be a string, %T given", a.Name, v))
		}
		if !slices.Contains(a.Allowed, s) {
			return newValidationError(kind, index, ErrArgumentOutOfRange, fmt.Sprintf("%s must be one of %v: %q given", a.Name, a.Allowed, s))
		}
	}

	return nil
}

// parse converts a wire text token into a value of the argument's type.
func (a ArgumentRule) parse(s string) any {
	if a.Type == ArgInt {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return s
}

// Rule describes how a command is validated, sent and answered.
// Rules are immutable once built by NewRuleSet.
type Rule struct {
	kind         Kind
	token        string
	category     Category
	arguments    []ArgumentRule
	response     ResponseKind
	mustBeFlying bool
	timeout      time.Duration
}

func (r *Rule) Kind() Kind {
	return r.kind
}

// Token is the wire text command name, e.g. "forward"
func (r *Rule) Token() string {
	return r.token
}

func (r *Rule) Category() Category {
	return r.category
}

// Arguments returns a copy of the positional argument rules
func (r *Rule) Arguments() []ArgumentRule {
	return slices.Clone(r.arguments)
}

// Arity is the exact number of arguments the command takes
func (r *Rule) Arity() int {
	return len(r.arguments)
}

func (r *Rule) Response() ResponseKind {
	return r.response
}

// MustBeFlying reports whether the drone has to be airborne to accept the command
func (r *Rule) MustBeFlying() bool {
	return r.mustBeFlying
}

// Timeout is how long to wait for the drone to answer
func (r *Rule) Timeout() time.Duration {
	return r.timeout
}

// Immediate reports whether commands of this rule bypass the queue
func (r *Rule) Immediate() bool {
	return len(r.arguments) == 0
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s(%s/%d)", r.kind, r.token, len(r.arguments))
}

// toInt converts an integer of any width to int. The second result is false
// for non-integer values, the third when the value does not fit an int.
func toInt(v any) (int, bool, bool) {
	switch n := v.(type) {
	case int:
		return n, true, true
	case int8:
		return int(n), true, true
	case int16:
		return int(n), true, true
	case int32:
		return int(n), true, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, true, false
		}
		return int(n), true, true
	case uint8:
		return int(n), true, true
	case uint16:
		return int(n), true, true
	case uint32:
		return fromUint(uint64(n))
	case uint:
		return fromUint(uint64(n))
	case uint64:
		return fromUint(n)
	default:
		return 0, false, false
	}
}

func fromUint(n uint64) (int, bool, bool) {
	if n > math.MaxInt {
		return 0, true, false
	}
	return int(n), true, true
}
