package testutil

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Handler answers one command. Returning ok=false leaves the command
// unanswered.
type Handler func(command string) (reply string, ok bool)

// FakeServer accepts unix socket connections and answers each command with
// its handler, recording everything it receives.
type FakeServer struct {
	Path string

	ln      net.Listener
	handler Handler
	wg      sync.WaitGroup

	mu       sync.Mutex
	commands []string
	conns    []net.Conn
	attached map[string][]net.Conn
	accepted atomic.Int32
}

// SocketDir returns a short temp dir: unix socket paths are limited to a
// little over 100 bytes, which t.TempDir paths can exceed.
func SocketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "kst")
	if err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

func StartFakeServer(t *testing.T, path string, h Handler) *FakeServer {
	t.Helper()
	f, err := ListenFakeServer(path, h)
	if err != nil {
		t.Fatalf("listen %s: %v", path, err)
	}
	t.Cleanup(f.Close)
	return f
}

// ListenFakeServer starts a server without a test handle, for use from
// goroutines that stand in for a launched process. The caller closes it.
func ListenFakeServer(path string, h Handler) (*FakeServer, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	f := &FakeServer{Path: path, ln: ln, handler: h}
	f.wg.Add(1)
	go f.acceptLoop()
	return f, nil
}

// NewFakeServer starts a server named name inside a fresh socket dir.
func NewFakeServer(t *testing.T, name string, h Handler) *FakeServer {
	t.Helper()
	return StartFakeServer(t, filepath.Join(SocketDir(t), name), h)
}

func (f *FakeServer) Dir() string {
	return filepath.Dir(f.Path)
}

func (f *FakeServer) acceptLoop() {
	defer f.wg.Done()
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.accepted.Add(1)
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		f.wg.Add(1)
		go f.serve(conn)
	}
}

func (f *FakeServer) serve(conn net.Conn) {
	defer f.wg.Done()
	defer conn.Close()
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			cmd := string(buf[:n])
			f.mu.Lock()
			f.commands = append(f.commands, cmd)
			if verb, args := SplitCommand(cmd); verb == "attachTo" && len(args) == 1 {
				if f.attached == nil {
					f.attached = map[string][]net.Conn{}
				}
				f.attached[args[0]] = append(f.attached[args[0]], conn)
				f.mu.Unlock()
				continue
			}
			f.mu.Unlock()
			if reply, ok := f.handler(cmd); ok {
				if _, werr := conn.Write([]byte(reply)); werr != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (f *FakeServer) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// CommandsWithVerb returns the received commands whose verb is verb.
func (f *FakeServer) CommandsWithVerb(verb string) []string {
	var out []string
	for _, c := range f.Commands() {
		if strings.HasPrefix(c, verb+"(") {
			out = append(out, c)
		}
	}
	return out
}

// Push writes msg to every connection attached to handle, the way the
// server reports widget events. It returns how many connections got it.
func (f *FakeServer) Push(handle, msg string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sent := 0
	for _, c := range f.attached[handle] {
		if _, err := c.Write([]byte(msg)); err == nil {
			sent++
		}
	}
	return sent
}

// WaitAttached blocks until some connection has attached to handle.
func (f *FakeServer) WaitAttached(handle string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		n := len(f.attached[handle])
		f.mu.Unlock()
		if n > 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func (f *FakeServer) Accepted() int {
	return int(f.accepted.Load())
}

// DropConnections closes every accepted connection but keeps listening.
func (f *FakeServer) DropConnections() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		_ = c.Close()
	}
	f.conns = nil
	f.attached = nil
}

func (f *FakeServer) Close() {
	if err := f.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return
	}
	f.DropConnections()
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// Static answers every command with reply.
func Static(reply string) Handler {
	return func(string) (string, bool) {
		return reply, true
	}
}
