package statemachinex

import "sync"

// Context is the machine's extended-state store: a thread-safe key/value
// map shared by callbacks that need mutable data beyond the current state
// pointer. It is owned by the machine and survives transitions.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

func newContext() *Context {
	return &Context{data: make(map[string]any)}
}

// Get retrieves a value by key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value by key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Delete removes a key. No-op for absent keys.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Snapshot returns a defensive copy of all entries.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// Replace atomically swaps the full contents.
func (c *Context) Replace(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]any, len(data))
	for k, v := range data {
		c.data[k] = v
	}
}
