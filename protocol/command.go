package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrProtocol        = errors.New("protocol: unexpected reply")
	ErrInvalidArgument = errors.New("protocol: invalid argument")
)

const (
	BeginEditVerb = "beginEdit"
	EndEditVerb   = "endEdit"
)

// Command is one textual request: verb(arg1,arg2,...).
type Command struct {
	Verb string
	Args []string
}

// NewCommand renders args into their wire literals. Booleans become
// True/False, floats use the shortest round-trip form and handles their
// token.
func NewCommand(verb string, args ...any) Command {
	rendered := make([]string, 0, len(args))
	for _, a := range args {
		rendered = append(rendered, FormatArg(a))
	}
	return Command{Verb: verb, Args: rendered}
}

func BeginEdit(h Handle) Command {
	return Command{Verb: BeginEditVerb, Args: []string{h.String()}}
}

func EndEdit() Command {
	return Command{Verb: EndEditVerb}
}

// Encode validates the command and returns its wire text. Line breaks are
// never accepted. When a command carries two or more arguments, commas and
// closing parentheses inside an argument would shift the server's split,
// so they are rejected too.
func (c Command) Encode() (string, error) {
	if c.Verb == "" || strings.ContainsAny(c.Verb, "(), \t\r\n") {
		return "", fmt.Errorf("%w: bad verb %q", ErrInvalidArgument, c.Verb)
	}
	for i, a := range c.Args {
		if strings.ContainsAny(a, "\r\n") {
			return "", fmt.Errorf("%w: %s argument %d contains a line break", ErrInvalidArgument, c.Verb, i+1)
		}
		if len(c.Args) > 1 && strings.ContainsAny(a, ",)") {
			return "", fmt.Errorf("%w: %s argument %d %q contains a separator", ErrInvalidArgument, c.Verb, i+1, a)
		}
	}
	return c.String(), nil
}

func (c Command) String() string {
	return c.Verb + "(" + strings.Join(c.Args, ",") + ")"
}

func FormatArg(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case Handle:
		return x.token
	case bool:
		return FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// EscapeCommas swaps commas for the backtick the server maps back to a
// comma in datasource string options.
func EscapeCommas(s string) string {
	return strings.ReplaceAll(s, ",", "`")
}
