package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestOSLauncherStartsAndStops(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	p, err := OSLauncher{StopTimeout: time.Second}.Launch(context.Background(), "sleep", "30")
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if p.Pid() <= 0 {
		t.Fatalf("expected positive pid, got %d", p.Pid())
	}
	if p.Err() != nil {
		t.Fatalf("expected running process, got %v", p.Err())
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("process did not exit after stop")
	}
	if p.Err() == nil {
		t.Fatalf("expected exit error after stop")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestOSLauncherReportsEarlyExit(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	p, err := OSLauncher{}.Launch(context.Background(), "true")
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected process to exit")
	}
	if p.Err() == nil {
		t.Fatalf("expected exit to be reported")
	}
}

func TestOSLauncherMissingBinary(t *testing.T) {
	_, err := OSLauncher{}.Launch(context.Background(), "kst2-definitely-not-installed")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func TestOSLauncherStopsProcessGroup(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no /proc")
	}
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	p, err := OSLauncher{StopTimeout: time.Second}.Launch(context.Background(),
		"sh", "-c", `sleep 30 & echo $! > "$1"; wait`, "sh", pidFile)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	var child int
	deadline := time.Now().Add(2 * time.Second)
	for child == 0 && time.Now().Before(deadline) {
		if raw, err := os.ReadFile(pidFile); err == nil {
			child, _ = strconv.Atoi(strings.TrimSpace(string(raw)))
		}
		if child == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if child == 0 {
		t.Fatalf("child pid never written")
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for processAlive(child) {
		if time.Now().After(deadline) {
			t.Fatalf("child %d survived stop", child)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// processAlive treats zombies as gone: they have exited but wait on a reaper.
func processAlive(pid int) bool {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	fields := strings.Fields(string(raw[strings.LastIndexByte(string(raw), ')')+1:]))
	return len(fields) > 0 && fields[0] != "Z"
}
