package command

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Command is a validated, immutable Tello command ready to be sent.
// Its arguments always satisfy the arity and ranges of its rule.
type Command struct {
	rule *Rule
	args []any
	text string
}

func newCommand(rule *Rule, args []any) (*Command, error) {
	if len(args) != rule.Arity() {
		return nil, newValidationError(rule.kind, -1, ErrArgumentMismatch, fmt.Sprintf("expected %d arguments, %d given", rule.Arity(), len(args)))
	}

	if len(args) > 0 && allNil(args) {
		return nil, newValidationError(rule.kind, -1, ErrArgumentNull, "all arguments are null")
	}

	for i, arg := range args {
		if err := rule.arguments[i].validate(rule.kind, i, arg); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	sb.WriteString(rule.token)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(formatArg(arg))
	}

	var cmdArgs []any
	if len(args) > 0 {
		cmdArgs = slices.Clone(args)
	}

	return &Command{
		rule: rule,
		args: cmdArgs,
		text: sb.String(),
	}, nil
}

func (c *Command) Kind() Kind {
	return c.rule.kind
}

// Args returns a copy of the command arguments, nil for argument-less commands
func (c *Command) Args() []any {
	return slices.Clone(c.args)
}

// IntArg returns the i-th argument as an int. It panics when the argument is not an integer,
// which cannot happen for ArgInt positions of a validated command.
func (c *Command) IntArg(i int) int {
	n, isInt, fits := toInt(c.args[i])
	if !isInt || !fits {
		panic(fmt.Sprintf("command %s: argument %d is not an integer", c.rule.kind, i))
	}
	return n
}

func (c *Command) Rule() *Rule {
	return c.rule
}

// Immediate reports whether the command bypasses the FIFO queue
func (c *Command) Immediate() bool {
	return c.rule.Immediate()
}

func (c *Command) Timeout() time.Duration {
	return c.rule.timeout
}

// String returns the wire text of the command
func (c *Command) String() string {
	return c.text
}

// Bytes returns the wire text as a datagram payload
func (c *Command) Bytes() []byte {
	return []byte(c.text)
}

func formatArg(v any) string {
	if n, isInt, fits := toInt(v); isInt && fits {
		return strconv.Itoa(n)
	}
	return fmt.Sprint(v)
}

func allNil(args []any) bool {
	for _, a := range args {
		if a != nil {
			return false
		}
	}
	return true
}
