package builder

import "sync"

// closers collects resources opened during lazy initialization
type closers struct {
	mu  sync.Mutex
	fns []func()
}

func (c *closers) add(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

// merge takes over the resources held by other
func (c *closers) merge(other *closers) {
	other.mu.Lock()
	fns := other.fns
	other.fns = nil
	other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fns...)
}

func (c *closers) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fns)
}

// Close releases resources in reverse order of acquisition
func (c *closers) Close() {
	c.mu.Lock()
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
