package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc releases one component of the planner (HTTP server, dispatcher, stores).
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager stops the planner's components in reverse start order once the
// process is asked to terminate.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
	stopped    bool
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger.Named("lifecycle"),
	}
}

// Register adds a component. Components registered later are stopped first,
// so the dispatcher stops before the stores it reads from.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: stop})
}

// Shutdown stops every registered component within the configured timeout.
// A failing component does not prevent the others from stopping. Only the
// first call does any work.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	started := time.Now()
	m.logger.Info("stopping planner", zap.Int("components", len(m.components)))

	var result error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		begin := time.Now()
		err := c.stop(ctx)
		fields := []zap.Field{zap.String("component", c.name), zap.Duration("elapsed", time.Since(begin))}
		if err != nil {
			m.logger.Error("component failed to stop", append(fields, zap.Error(err))...)
			result = errors.Join(result, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		m.logger.Info("component stopped", fields...)
	}

	if ctx.Err() != nil {
		m.logger.Warn("shutdown exceeded its deadline", zap.Duration("timeout", m.timeout))
	}
	m.logger.Info("planner stopped", zap.Duration("elapsed", time.Since(started)))
	return result
}

// WatchSignals returns a context that is cancelled on SIGINT or SIGTERM, or
// when the returned stop function is called.
func (m *Manager) WatchSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			m.logger.Info("termination signal received", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
