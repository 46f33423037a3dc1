package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"noodle_backend/logging"

	"go.uber.org/zap"
)

// Manager coordinates graceful shutdown: it cancels its context on SIGINT or
// SIGTERM, then runs registered cleanup functions in priority order under a
// timeout. A second signal forces immediate exit.
type Manager struct {
	logger   *logging.Logger
	timeout  time.Duration
	registry *Registry

	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx     context.Context
	cancel  context.CancelFunc
	sigChan chan os.Signal

	// exit is swapped out in tests.
	exit func(code int)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the total shutdown timeout. Default is 30 seconds.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// NewManager creates a Manager ready to coordinate graceful shutdown.
func NewManager(logger *logging.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger.Named("shutdown"),
		timeout:  30 * time.Second,
		registry: NewRegistry(),
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  make(chan os.Signal, 2),
		exit:     os.Exit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context returns the root context, cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priority values run earlier.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority))
}

// Start begins signal handling. The first SIGINT or SIGTERM cancels the
// context; a second forces exit. Safe to call more than once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		count := 0
		for sig := range m.sigChan {
			count++
			if count == 1 {
				m.logger.Info("received shutdown signal",
					zap.String("signal", sig.String()))
				m.cancel()
				continue
			}
			m.logger.Warn("received second signal, forcing exit")
			m.exit(1)
		}
	}()
}

// Wait blocks until shutdown has been initiated.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}

// Trigger initiates shutdown without an OS signal. Used when startup fails
// partway and the process must unwind what it already wired.
func (m *Manager) Trigger() {
	m.cancel()
}

// Shutdown runs the registered cleanup functions in priority order under the
// configured timeout. Idempotent; subsequent calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.mu.Unlock()

	start := time.Now()
	m.logger.Info("starting graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Strings("handlers", m.registry.Names()))

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("cleanup failed", zap.Error(err))
	}

	signal.Stop(m.sigChan)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %d cleanup functions failed", len(errs))
	}
	m.logger.Info("graceful shutdown complete",
		zap.Duration("duration", time.Since(start)))
	return nil
}
