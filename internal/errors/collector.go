// Package errors collects callback failures for one pattern invocation
package errors

import (
	"errors"
	"sync"

	"github.com/jzx17/goparallel/pkg/types"
)

// Collector records errors from any goroutine of an invocation. The invocation
// returns Err once all of its goroutines have been joined.
type Collector struct {
	handler    types.ErrorHandler
	onRecord   func(err error)
	mu         sync.Mutex
	errs       []error
	suppressed int
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithHandler lets handler inspect every error first. Returning nil suppresses it,
// returning another error replaces it.
func WithHandler(handler types.ErrorHandler) CollectorOption {
	return func(c *Collector) {
		c.handler = handler
	}
}

// WithRecordHook is called for each error that is kept
func WithRecordHook(fn func(err error)) CollectorOption {
	return func(c *Collector) {
		c.onRecord = fn
	}
}

// NewCollector creates an empty collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record stores err and reports whether it was kept
func (c *Collector) Record(err error) bool {
	if err == nil {
		return false
	}
	if c.handler != nil {
		err = c.handler(err)
	}

	c.mu.Lock()
	if err == nil {
		c.suppressed++
		c.mu.Unlock()
		return false
	}
	c.errs = append(c.errs, err)
	c.mu.Unlock()

	if c.onRecord != nil {
		c.onRecord(err)
	}
	return true
}

// Err returns every kept error joined, or nil
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}

// Len returns the number of kept errors
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Suppressed returns the number of errors the handler dropped
func (c *Collector) Suppressed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}
