package sources

import (
	"fmt"
	"sync"
	"time"

	"wallet/internal/core"
)

// Connection is the connect/disconnect state machine shared by sources.
// The zero value is disconnected and uses time.Now.
type Connection struct {
	mu        sync.RWMutex
	connected bool
	lastSync  time.Time
	Now       func() time.Time
}

func (c *Connection) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Open marks the connection established and stamps the sync time.
func (c *Connection) Open() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	c.lastSync = c.now().UTC()
	return c.stateLocked()
}

// Close drops the connection and forgets the last sync.
func (c *Connection) Close() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.lastSync = time.Time{}
	return c.stateLocked()
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

// Require returns core.ErrNotConnected unless the connection is open.
func (c *Connection) Require(source string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return fmt.Errorf("%s: %w", source, core.ErrNotConnected)
	}
	return nil
}

// MarkSynced records a successful fetch.
func (c *Connection) MarkSynced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.lastSync = c.now().UTC()
	}
}

func (c *Connection) stateLocked() State {
	s := State{Connected: c.connected}
	if c.connected && !c.lastSync.IsZero() {
		t := c.lastSync
		s.LastSync = &t
	}
	return s
}
