package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// Kst imitates the plotting server closely enough for client tests: new*
// commands open an edit on a freshly numbered object, endEdit() names it,
// and other commands get canned replies.
type Kst struct {
	mu      sync.Mutex
	seq     int
	pending string
	editing string
	exact   map[string]string
	verbs   map[string]func(args []string) string
	names   []string
}

func NewKst() *Kst {
	return &Kst{
		exact: map[string]string{},
		verbs: map[string]func(args []string) string{},
	}
}

// Set answers the exact command text with reply.
func (k *Kst) Set(command, reply string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.exact[command] = reply
}

// On answers every command with the given verb through fn.
func (k *Kst) On(verb string, fn func(args []string) string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.verbs[verb] = fn
}

// Editing reports the handle currently between beginEdit and endEdit.
func (k *Kst) Editing() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.editing
}

// Created lists the handles handed out so far.
func (k *Kst) Created() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.names...)
}

func (k *Kst) Handler() Handler {
	return func(command string) (string, bool) {
		return k.handle(command), true
	}
}

func (k *Kst) handle(command string) string {
	verb, args := SplitCommand(command)
	k.mu.Lock()
	if reply, ok := k.exact[command]; ok {
		k.mu.Unlock()
		return reply
	}
	fn := k.verbs[verb]
	switch {
	case verb == "beginEdit":
		k.editing = strings.Join(args, ",")
		k.mu.Unlock()
		return "Ok"
	case verb == "endEdit":
		reply := "Finished editing"
		if k.pending != "" {
			reply = "Finished editing " + k.pending
			k.pending = ""
		}
		k.editing = ""
		k.mu.Unlock()
		return reply
	case strings.HasPrefix(verb, "new") && fn == nil:
		k.seq++
		k.pending = fmt.Sprintf("%s%d", handlePrefix(verb), k.seq)
		k.editing = k.pending
		k.names = append(k.names, k.pending)
		k.mu.Unlock()
		return "Ok"
	}
	k.mu.Unlock()
	if fn != nil {
		return fn(args)
	}
	return "Ok"
}

// SplitCommand breaks verb(a,b) into its verb and arguments.
func SplitCommand(command string) (string, []string) {
	open := strings.IndexByte(command, '(')
	closing := strings.LastIndexByte(command, ')')
	if open < 0 || closing < open {
		return strings.TrimSpace(command), nil
	}
	verb := command[:open]
	inner := command[open+1 : closing]
	if inner == "" {
		return verb, nil
	}
	return verb, strings.Split(inner, ",")
}

func handlePrefix(verb string) string {
	switch {
	case strings.HasSuffix(verb, "Vector"):
		return "V"
	case strings.HasSuffix(verb, "Matrix"):
		return "M"
	case strings.HasSuffix(verb, "Scalar"):
		return "X"
	case strings.HasSuffix(verb, "String"):
		return "T"
	case verb == "newCurve":
		return "C"
	case verb == "newImage":
		return "I"
	case verb == "newEquation":
		return "E"
	case verb == "newHistogram":
		return "H"
	case verb == "newSpectrum":
		return "S"
	case verb == "newPlugin":
		return "P"
	case verb == "newPlot":
		return "Plot"
	default:
		return strings.TrimPrefix(verb, "new")
	}
}
