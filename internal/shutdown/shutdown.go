// Package shutdown coordinates graceful shutdown of the language server:
// it turns SIGINT/SIGTERM into context cancellation and runs registered
// cleanups, such as closing the Home Assistant connection, under a grace
// period.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultGracePeriod is the default time allowed for cleanup operations.
const DefaultGracePeriod = 5 * time.Second

// Coordinator cancels a base context on shutdown and runs cleanups.
type Coordinator struct {
	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	gracePeriod time.Duration
	logger      *zap.SugaredLogger

	// run in LIFO order
	cleanups []cleanup

	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
	doneChan       chan struct{}
	shutdownReason string

	// exit is called on a second signal.
	exit func(code int)
}

type cleanup struct {
	name string
	fn   func(ctx context.Context) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithGracePeriod sets the time allowed for cleanup.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Coordinator) {
		c.gracePeriod = d
	}
}

// WithLogger sets the logger used to report shutdown progress.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator. The returned context is canceled when
// shutdown starts.
func New(opts ...Option) (*Coordinator, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		ctx:          ctx,
		cancel:       cancel,
		gracePeriod:  DefaultGracePeriod,
		logger:       zap.NewNop().Sugar(),
		shutdownChan: make(chan struct{}),
		doneChan:     make(chan struct{}),
		exit:         os.Exit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, ctx
}

// RegisterCleanup adds fn to run during shutdown. Cleanups run last
// registered first.
func (c *Coordinator) RegisterCleanup(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups = append(c.cleanups, cleanup{name: name, fn: fn})
}

// HandleSignals starts graceful shutdown on SIGINT or SIGTERM. A second
// signal exits immediately. The returned func stops listening.
func (c *Coordinator) HandleSignals() (stop func()) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			go c.Shutdown("received signal " + sig.String())
		case <-quit:
			return
		}
		select {
		case sig := <-sigChan:
			c.logger.Warnw("Forced exit", "signal", sig.String())
			c.exit(1)
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(quit)
		})
	}
}

// Shutdown cancels the base context and runs cleanups. Only the first call
// has effect; later calls wait for it to finish.
func (c *Coordinator) Shutdown(reason string) {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		c.shutdownReason = reason
		cleanups := make([]cleanup, len(c.cleanups))
		copy(cleanups, c.cleanups)
		c.mu.Unlock()

		close(c.shutdownChan)
		c.logger.Infow("Shutting down", "reason", reason)

		c.cancel()
		c.runCleanups(cleanups)
		close(c.doneChan)
	})
	<-c.doneChan
}

func (c *Coordinator) runCleanups(cleanups []cleanup) {
	if len(cleanups) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.gracePeriod)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(cleanups) - 1; i >= 0; i-- {
			cl := cleanups[i]
			if err := cl.fn(ctx); err != nil {
				c.logger.Warnw("Cleanup failed", "cleanup", cl.name, "error", err)
				continue
			}
			c.logger.Debugw("Cleanup finished", "cleanup", cl.name)
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warnw("Cleanup timed out", "grace_period", c.gracePeriod)
	}
}

// ShutdownChan is closed when shutdown begins.
func (c *Coordinator) ShutdownChan() <-chan struct{} {
	return c.shutdownChan
}

// Done is closed once cleanups have finished or timed out.
func (c *Coordinator) Done() <-chan struct{} {
	return c.doneChan
}

// IsShuttingDown reports whether shutdown has started.
func (c *Coordinator) IsShuttingDown() bool {
	select {
	case <-c.shutdownChan:
		return true
	default:
		return false
	}
}

// Context returns the base context.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// ShutdownReason returns why shutdown started, or "".
func (c *Coordinator) ShutdownReason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shutdownReason
}
