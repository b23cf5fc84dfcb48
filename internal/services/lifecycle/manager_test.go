package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"postgres", "journal", "reminder_dispatcher"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	want := []string{"reminder_dispatcher", "journal", "postgres"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestShutdownJoinsErrorsAndContinues(t *testing.T) {
	m := New(time.Second, nil)
	errRedis := errors.New("redis close failed")

	ran := false
	m.Register("postgres", func(context.Context) error {
		ran = true
		return nil
	})
	m.Register("redis", func(context.Context) error { return errRedis })

	err := m.Shutdown(context.Background())
	if !errors.Is(err, errRedis) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !strings.Contains(err.Error(), "stop redis") {
		t.Fatalf("error does not name the component: %v", err)
	}
	if !ran {
		t.Fatalf("components after a failing one must still stop")
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.Register("journal", func(context.Context) error {
		calls++
		return nil
	})

	for i := 0; i < 2; i++ {
		if err := m.Shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one stop call, got %d", calls)
	}
}

func TestWatchSignalsCancelsOnTerm(t *testing.T) {
	m := New(time.Second, nil)
	ctx, stop := m.WatchSignals(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send signal: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("context not cancelled by SIGTERM")
	}
}

func TestWatchSignalsStop(t *testing.T) {
	m := New(time.Second, nil)
	ctx, stop := m.WatchSignals(context.Background())
	stop()
	if ctx.Err() == nil {
		t.Fatalf("expected stop to cancel the context")
	}
}

func TestShutdownHookSeesDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("missing deadline")
		}
		<-ctx.Done()
		return nil
	})

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
