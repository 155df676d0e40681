package pipeline

import (
	"log/slog"
	"os"
	"sync"
)

// CleanupRegistry tracks the temp paths a run creates so they can be
// removed on success, failure, or interrupt alike. Published events are
// never rolled back; only local state is reclaimed.
type CleanupRegistry struct {
	mu     sync.Mutex
	paths  []string
	logger *slog.Logger
}

// NewCleanupRegistry constructs an empty registry.
func NewCleanupRegistry(logger *slog.Logger) *CleanupRegistry {
	return &CleanupRegistry{logger: logger}
}

// Register adds a path for later removal.
func (c *CleanupRegistry) Register(path string) {
	if path == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

// Run removes every registered path, newest first, and clears the registry.
func (c *CleanupRegistry) Run() {
	c.mu.Lock()
	paths := c.paths
	c.paths = nil
	c.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.RemoveAll(paths[i]); err != nil && c.logger != nil {
			c.logger.Warn("cleanup failed", "path", paths[i], "error", err)
		}
	}
}
