package closer

import (
	"context"
	"sync"

	"github.com/you-humble/gearguard/internal/platform/logger"
)

// Closer collects shutdown hooks and runs them in reverse registration order.
type Closer struct {
	mu    sync.Mutex
	once  sync.Once
	items []item
	log   *logger.Logger
}

type item struct {
	name string
	fn   func(ctx context.Context) error
}

var global = &Closer{}

// SetLogger sets the logger used to report per-hook shutdown progress.
func SetLogger(l *logger.Logger) { global.SetLogger(l) }

// AddNamed registers a named shutdown hook on the global closer.
func AddNamed(name string, fn func(ctx context.Context) error) { global.AddNamed(name, fn) }

// CloseAll runs all registered hooks on the global closer.
func CloseAll(ctx context.Context) error { return global.CloseAll(ctx) }

func (c *Closer) SetLogger(l *logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = l
}

func (c *Closer) AddNamed(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item{name: name, fn: fn})
}

// CloseAll runs hooks LIFO so dependents shut down before their dependencies.
// All hooks run even if some fail; the first error is returned.
func (c *Closer) CloseAll(ctx context.Context) error {
	var firstErr error

	c.once.Do(func() {
		c.mu.Lock()
		items := c.items
		c.items = nil
		log := c.log
		c.mu.Unlock()

		for i := len(items) - 1; i >= 0; i-- {
			it := items[i]
			if log != nil {
				log.Info(ctx, "closing", logger.String("component", it.name))
			}
			if err := it.fn(ctx); err != nil {
				if log != nil {
					log.Error(ctx, "close failed", logger.String("component", it.name), logger.ErrorF(err))
				}
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	})

	return firstErr
}
