// Package status holds the last known patch status of an installation. A Cache
// is owned by whoever creates it and handed to the collaborators that display it.
package status

import (
	"sync"
	"time"

	"github.com/DeusData/antigravity-autopilot/internal/engine"
)

// Report is the status of every target of one installation.
type Report struct {
	// BasePath is empty when no installation was found.
	BasePath   string              `json:"basePath"`
	AppVersion string              `json:"appVersion,omitempty"`
	Files      []engine.FileStatus `json:"files"`
	CheckedAt  time.Time           `json:"checkedAt"`
}

// Installed reports whether an installation was found.
func (r *Report) Installed() bool { return r.BasePath != "" }

// Patched reports whether any existing target carries at least one kind.
func (r *Report) Patched() bool {
	for _, f := range r.Files {
		if f.Exists && f.Patched {
			return true
		}
	}
	return false
}

// Complete reports whether at least one kind is present and no existing target
// has a kind left to apply.
func (r *Report) Complete() bool {
	for _, f := range r.Files {
		if f.Exists && !f.Complete {
			return false
		}
	}
	return r.Patched()
}

// Cache is safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	report *Report
	subs   map[int]func(Report)
	nextID int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{subs: make(map[int]func(Report))}
}

// Store replaces the cached report and notifies subscribers.
func (c *Cache) Store(r Report) {
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now()
	}
	c.mu.Lock()
	c.report = &r
	subs := make([]func(Report), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(r)
	}
}

// Load returns the cached report, if any.
func (c *Cache) Load() (Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.report == nil {
		return Report{}, false
	}
	return *c.report, true
}

// Patched reports the cached patched state; false before the first Store.
func (c *Cache) Patched() bool {
	r, ok := c.Load()
	return ok && r.Patched()
}

// Subscribe registers fn to run after every Store. The returned func removes it.
func (c *Cache) Subscribe(fn func(Report)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
