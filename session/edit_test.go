package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/g960059/kstclient/internal/testutil"
	"github.com/g960059/kstclient/protocol"
)

func mustAttach(t *testing.T, name string) protocol.Handle {
	t.Helper()
	h, err := protocol.Attach(name)
	if err != nil {
		t.Fatalf("attach %s: %v", name, err)
	}
	return h
}

func TestWithEditBracketsBody(t *testing.T) {
	k := testutil.NewKst()
	k.On("name", func([]string) string { return "signal" })
	srv := testutil.NewFakeServer(t, "kstScript", k.Handler())
	s := connectTo(t, srv, nil)

	reply, err := s.WithEdit(context.Background(), mustAttach(t, "C1"), func(ctx context.Context, tx *Tx) (string, error) {
		if tx.Handle().String() != "C1" {
			t.Fatalf("expected tx on C1, got %s", tx.Handle())
		}
		return tx.Send(ctx, protocol.NewCommand("name"))
	})
	if err != nil {
		t.Fatalf("with edit: %v", err)
	}
	if reply != "signal" {
		t.Fatalf("expected body reply, got %q", reply)
	}
	want := []string{"beginEdit(C1)", "name()", "endEdit()"}
	if diff := cmp.Diff(want, srv.Commands()); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}
	if k.Editing() != "" {
		t.Fatalf("expected edit closed, still editing %q", k.Editing())
	}
}

func TestWithEditExposesEndReply(t *testing.T) {
	k := testutil.NewKst()
	k.Set("endEdit()", "Finished editing C1")
	srv := testutil.NewFakeServer(t, "kstScript", k.Handler())
	s := connectTo(t, srv, nil)

	var held *Tx
	reply, err := s.WithEdit(context.Background(), mustAttach(t, "C1"), func(ctx context.Context, tx *Tx) (string, error) {
		held = tx
		if tx.EndReply() != "" {
			t.Fatalf("end reply set before endEdit: %q", tx.EndReply())
		}
		return tx.Send(ctx, protocol.NewCommand("setXVector", "V1"))
	})
	if err != nil {
		t.Fatalf("with edit: %v", err)
	}
	if reply != "Ok" {
		t.Fatalf("expected body reply, got %q", reply)
	}
	if held.EndReply() != "Finished editing C1" {
		t.Fatalf("expected endEdit reply, got %q", held.EndReply())
	}
}

func TestWithEditClosesOnBodyError(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)

	boom := errors.New("boom")
	_, err := s.WithEdit(context.Background(), mustAttach(t, "V1"), func(ctx context.Context, tx *Tx) (string, error) {
		if _, err := tx.Send(ctx, protocol.NewCommand("setName", "x")); err != nil {
			return "", err
		}
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}
	want := []string{"beginEdit(V1)", "setName(x)", "endEdit()"}
	if diff := cmp.Diff(want, srv.Commands()); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestWithEditClosesOnPanic(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_, _ = s.WithEdit(context.Background(), mustAttach(t, "V1"), func(context.Context, *Tx) (string, error) {
			panic("body exploded")
		})
	}()
	cmds := srv.Commands()
	if len(cmds) != 2 || cmds[1] != "endEdit()" {
		t.Fatalf("expected endEdit after panic, got %v", cmds)
	}
	if _, err := s.Send(context.Background(), protocol.NewCommand("tabCount")); err != nil {
		t.Fatalf("session unusable after panic: %v", err)
	}
}

func TestWithEditRejectsZeroHandle(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.Static("Ok"))
	s := connectTo(t, srv, nil)
	_, err := s.WithEdit(context.Background(), protocol.Handle{}, func(context.Context, *Tx) (string, error) {
		return "", nil
	})
	if !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(srv.Commands()) != 0 {
		t.Fatalf("expected nothing sent, got %v", srv.Commands())
	}
}

func TestTxUnusableAfterBody(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)
	var leaked *Tx
	if _, err := s.WithEdit(context.Background(), mustAttach(t, "V1"), func(_ context.Context, tx *Tx) (string, error) {
		leaked = tx
		return "", nil
	}); err != nil {
		t.Fatalf("with edit: %v", err)
	}
	if _, err := leaked.Send(context.Background(), protocol.NewCommand("setName", "late")); err == nil {
		t.Fatalf("expected error sending on finished transaction")
	}
}

func TestEditSendsAllCommandsInOneTransaction(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)
	_, err := s.Edit(context.Background(), mustAttach(t, "B1"),
		protocol.NewCommand("setPosX", 0.25),
		protocol.NewCommand("setPosY", 0.75),
	)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	want := []string{"beginEdit(B1)", "setPosX(0.25)", "setPosY(0.75)", "endEdit()"}
	if diff := cmp.Diff(want, srv.Commands()); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentEditsNeverInterleave(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)

	const workers, rounds = 8, 15
	handles := make([]protocol.Handle, workers)
	for w := range handles {
		handles[w] = mustAttach(t, fmt.Sprintf("V%d", w))
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(h protocol.Handle) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, _ = s.WithEdit(context.Background(), h, func(ctx context.Context, tx *Tx) (string, error) {
					if _, err := tx.Send(ctx, protocol.NewCommand("touch", tx.Handle())); err != nil {
						return "", err
					}
					if i%3 == 0 {
						return "", errors.New("body failure")
					}
					return tx.Send(ctx, protocol.NewCommand("touch", tx.Handle()))
				})
			}
		}(handles[w])
	}
	wg.Wait()

	open := ""
	begins, ends := 0, 0
	for _, c := range srv.Commands() {
		verb, args := testutil.SplitCommand(c)
		switch verb {
		case "beginEdit":
			if open != "" {
				t.Fatalf("beginEdit(%s) while %s still open", args[0], open)
			}
			open = args[0]
			begins++
		case "endEdit":
			if open == "" {
				t.Fatalf("endEdit without open transaction")
			}
			open = ""
			ends++
		case "touch":
			if args[0] != open {
				t.Fatalf("command for %s inside transaction on %s", args[0], open)
			}
		}
	}
	if begins != workers*rounds || ends != begins {
		t.Fatalf("expected %d balanced transactions, got %d begins and %d ends", workers*rounds, begins, ends)
	}
}

func TestCreateAndInit(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)

	h, err := s.CreateAndInit(context.Background(), protocol.NewCommand("newGeneratedVector"), func(ctx context.Context, tx *Tx) error {
		if !tx.Handle().IsZero() {
			t.Fatalf("expected zero handle before the server names the object")
		}
		_, err := tx.Send(ctx, protocol.NewCommand("change", 0, 1, 10))
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.String() != "V1" {
		t.Fatalf("expected V1, got %s", h)
	}
	want := []string{"newGeneratedVector()", "change(0,1,10)", "endEdit()"}
	if diff := cmp.Diff(want, srv.Commands()); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateAndInitClosesOnInitError(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.NewKst().Handler())
	s := connectTo(t, srv, nil)

	_, err := s.CreateAndInit(context.Background(), protocol.NewCommand("newCurve"), func(ctx context.Context, tx *Tx) error {
		_, err := tx.Send(ctx, protocol.NewCommand("setXVector", "a,b", "c"))
		return err
	})
	if !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("expected init error, got %v", err)
	}
	cmds := srv.Commands()
	if len(cmds) != 2 || cmds[1] != "endEdit()" {
		t.Fatalf("expected creation closed, got %v", cmds)
	}
}

func TestCreateAndInitRejectsReplyWithoutHandle(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.Static("Ok"))
	s := connectTo(t, srv, nil)

	_, err := s.CreateAndInit(context.Background(), protocol.NewCommand("newBox"), nil)
	if !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if !strings.Contains(err.Error(), "newBox()") {
		t.Fatalf("expected error to name the creation command, got %v", err)
	}
}
