package loom

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestScheduler(out *bytes.Buffer) (*Scheduler, *Tree) {
	tree := NewTree()
	screen := NewScreenSize(out, 20, 6)
	reg := NewFocusRegistry()
	comp := NewCompositor(reg)
	fm := NewFocusManager(tree, reg)
	sched := NewScheduler(tree, screen, comp, fm, zerolog.Nop())
	return sched, tree
}

func drainErr(t *testing.T, s *Scheduler) error {
	t.Helper()
	select {
	case err := <-s.Errors():
		return err
	default:
		return nil
	}
}

func TestSchedulerCoalescing(t *testing.T) {
	var out bytes.Buffer
	sched, tree := newTestScheduler(&out)

	for i := 0; i < 3; i++ {
		sched.Update(func() error {
			n := tree.Create(nil, NodeText)
			n.Text = "x"
			return nil
		})
	}

	n := sched.RunPending()
	if n == 0 {
		t.Fatal("first pass should flush output")
	}
	if tree.Len() != 4 {
		t.Errorf("all queued updates should apply in one pass, got %d nodes", tree.Len())
	}
	if tree.Dirty() {
		t.Error("pass should clear the dirty flag")
	}

	// Nothing changed: a forced re-render emits zero bytes.
	sched.Request()
	if n := sched.RunPending(); n != 0 {
		t.Errorf("unchanged re-render wrote %d bytes", n)
	}
}

func TestSchedulerErrors(t *testing.T) {
	t.Run("FailingUpdateSkipped", func(t *testing.T) {
		var out bytes.Buffer
		sched, tree := newTestScheduler(&out)

		boom := errors.New("boom")
		sched.Update(func() error { return boom })
		sched.Update(func() error {
			tree.Create(nil, NodeBox)
			return nil
		})
		sched.RunPending()

		err := drainErr(t, sched)
		if err == nil || !errors.Is(err, boom) {
			t.Errorf("expected wrapped boom, got %v", err)
		}
		if tree.Len() != 2 {
			t.Error("the failing update must not stop the batch")
		}
	})

	t.Run("PanicRecovered", func(t *testing.T) {
		var out bytes.Buffer
		sched, tree := newTestScheduler(&out)

		sched.Update(func() error { panic("kaboom") })
		sched.Update(func() error {
			tree.Create(nil, NodeBox)
			return nil
		})
		sched.RunPending()

		err := drainErr(t, sched)
		var rtErr *RuntimeError
		if !errors.As(err, &rtErr) || rtErr.Phase != PhaseRender {
			t.Errorf("expected render-phase runtime error, got %v", err)
		}
		if tree.Len() != 2 {
			t.Error("a panicking update must not stop the batch")
		}
	})
}

func TestSchedulerReentrancy(t *testing.T) {
	var out bytes.Buffer
	sched, tree := newTestScheduler(&out)

	sched.Update(func() error {
		tree.Create(nil, NodeBox)
		// An update queued from inside a pass runs in the next pass.
		sched.Update(func() error {
			tree.Create(nil, NodeBox)
			return nil
		})
		return nil
	})

	sched.RunPending()
	if tree.Len() != 2 {
		t.Errorf("nested update should be deferred, got %d nodes", tree.Len())
	}

	select {
	case <-sched.Wake():
	default:
		t.Fatal("deferred update should re-signal the loop")
	}
	sched.RunPending()
	if tree.Len() != 3 {
		t.Errorf("deferred update should apply on the next pass, got %d nodes", tree.Len())
	}
}

func TestSchedulerFocusRedraw(t *testing.T) {
	var out bytes.Buffer
	sched, tree := newTestScheduler(&out)

	a := tree.Create(nil, NodeBox)
	a.Focusable = true
	a.Style.Width = Cells(5)
	a.Style.Height = Cells(2)
	sched.RunPending()

	out.Reset()
	sched.focus.Rebuild()
	sched.focus.Next()
	sched.FocusChanged()
	n := sched.RunPending()
	if n == 0 {
		t.Fatal("focus change should trigger a redraw")
	}
	if !bytes.Contains(out.Bytes(), []byte(escClearScreen)) {
		t.Error("focus change should force a full repaint")
	}
}

func TestSchedulerWakeSignal(t *testing.T) {
	var out bytes.Buffer
	sched, _ := newTestScheduler(&out)

	sched.Update(func() error { return nil })
	select {
	case <-sched.Wake():
	default:
		t.Fatal("Update should signal the wake channel")
	}

	// Signals coalesce: many updates, one pending wake.
	for i := 0; i < 10; i++ {
		sched.Update(func() error { return nil })
	}
	<-sched.Wake()
	select {
	case <-sched.Wake():
		t.Error("wake channel should hold at most one signal")
	default:
	}
}
