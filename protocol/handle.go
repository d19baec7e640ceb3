package protocol

import (
	"fmt"
	"strings"
)

// handleMarker precedes the new object's handle in creation replies,
// e.g. "Finished editing V3".
const handleMarker = "ing "

// Handle is an opaque token the server assigns to an object it owns.
// The zero Handle addresses nothing and is rejected by every command path.
type Handle struct {
	token string
}

func (h Handle) String() string {
	return h.token
}

func (h Handle) IsZero() bool {
	return h.token == ""
}

// ExtractHandle pulls the handle out of the reply that closes a creation
// transaction.
func ExtractHandle(reply string) (Handle, error) {
	idx := strings.Index(reply, handleMarker)
	if idx < 0 {
		return Handle{}, fmt.Errorf("%w: no handle marker in %q", ErrProtocol, reply)
	}
	token := strings.TrimSpace(reply[idx+len(handleMarker):])
	if token == "" {
		return Handle{}, fmt.Errorf("%w: empty handle in %q", ErrProtocol, reply)
	}
	if err := validateToken(token); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return Handle{token: token}, nil
}

// ParseHandle reads a reply that names another object, such as the
// result of xVector() or outputVector(Y).
func ParseHandle(reply string) (Handle, error) {
	token := strings.TrimSpace(reply)
	if err := validateToken(token); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return Handle{token: token}, nil
}

// Attach addresses an object that already exists on the server by name.
func Attach(name string) (Handle, error) {
	token := strings.TrimSpace(name)
	if err := validateToken(token); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return Handle{token: token}, nil
}

func validateToken(token string) error {
	switch {
	case token == "":
		return fmt.Errorf("empty handle")
	case strings.ContainsAny(token, "\r\n"):
		return fmt.Errorf("handle %q contains a line break", token)
	case strings.Contains(token, ","):
		return fmt.Errorf("handle %q contains a comma", token)
	}
	return nil
}
