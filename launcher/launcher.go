// Package launcher starts the plotting server as a child process.
package launcher

import (
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Process is a server the client started. Done closes when it exits.
type Process interface {
	Pid() int
	Done() <-chan struct{}
	// Err reports how the process exited; nil while it runs.
	Err() error
	Stop() error
}

type Launcher interface {
	Launch(ctx context.Context, binary string, args ...string) (Process, error)
}

// OSLauncher starts the binary detached from the caller's context: the
// server outlives the launch call and is stopped only through Process.Stop.
type OSLauncher struct {
	// StopTimeout bounds the wait between SIGTERM and SIGKILL. Both go to
	// the server's process group, so helpers it spawned stop with it.
	StopTimeout time.Duration
}

func (l OSLauncher) Launch(_ context.Context, binary string, args ...string) (Process, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.Wrapf(err, "locate %s", binary)
	}
	cmd := exec.Command(path, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", binary)
	}
	stopTimeout := l.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 3 * time.Second
	}
	p := &osProcess{
		cmd:         cmd,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go p.wait()
	return p, nil
}

type osProcess struct {
	cmd         *exec.Cmd
	done        chan struct{}
	stopTimeout time.Duration

	mu      sync.Mutex
	exitErr error
}

func (p *osProcess) wait() {
	err := p.cmd.Wait()
	p.mu.Lock()
	if err == nil {
		err = errors.New("server exited")
	}
	p.exitErr = err
	p.mu.Unlock()
	close(p.done)
}

func (p *osProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Done() <-chan struct{} {
	return p.done
}

func (p *osProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

func (p *osProcess) Stop() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.signalGroup(syscall.SIGTERM); err != nil {
		return errors.Wrap(err, "terminate server")
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(p.stopTimeout):
	}
	if err := p.signalGroup(syscall.SIGKILL); err != nil {
		return errors.Wrap(err, "kill server")
	}
	<-p.done
	return nil
}

// signalGroup signals every process in the server's group. A group that is
// already gone is not an error.
func (p *osProcess) signalGroup(sig syscall.Signal) error {
	err := syscall.Kill(-p.cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
