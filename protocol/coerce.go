package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	trueLiteral  = "True"
	falseLiteral = "False"
)

func FormatBool(b bool) string {
	if b {
		return trueLiteral
	}
	return falseLiteral
}

// ParseBool accepts exactly True or False. Case matters.
func ParseBool(reply string) (bool, error) {
	switch strings.TrimSpace(reply) {
	case trueLiteral:
		return true, nil
	case falseLiteral:
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected True or False, got %q", ErrProtocol, reply)
	}
}

func ParseFloat(reply string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected number, got %q", ErrProtocol, reply)
	}
	return v, nil
}

func ParseInt(reply string) (int, error) {
	s := strings.TrimSpace(reply)
	v, err := strconv.Atoi(s)
	if err == nil {
		return v, nil
	}
	// some counters come back in float notation ("12.0")
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: expected integer, got %q", ErrProtocol, reply)
	}
	return int(f), nil
}

// ParseDims reads the "nx ny" reply a matrix store returns.
func ParseDims(reply string) (nx, ny int, err error) {
	fields := strings.Fields(reply)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: expected \"nx ny\", got %q", ErrProtocol, reply)
	}
	nx, err = strconv.Atoi(fields[0])
	if err != nil || nx < 0 {
		return 0, 0, fmt.Errorf("%w: bad width in %q", ErrProtocol, reply)
	}
	ny, err = strconv.Atoi(fields[1])
	if err != nil || ny < 0 {
		return 0, 0, fmt.Errorf("%w: bad height in %q", ErrProtocol, reply)
	}
	return nx, ny, nil
}

// SplitList splits a '|' separated list. An empty reply is an empty list.
func SplitList(reply string) []string {
	s := strings.TrimRight(reply, "\r\n")
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, "|")
}

// SplitBracketList parses the "[A][B]" form used by view item lists.
func SplitBracketList(reply string) ([]string, error) {
	s := strings.TrimSpace(reply)
	out := []string{}
	for s != "" {
		if s[0] != '[' {
			return nil, fmt.Errorf("%w: expected '[' in %q", ErrProtocol, reply)
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated item in %q", ErrProtocol, reply)
		}
		out = append(out, s[1:end])
		s = strings.TrimSpace(s[end+1:])
	}
	return out, nil
}
