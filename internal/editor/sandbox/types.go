package sandbox

import (
	"time"
)

// Config defines frame runtime limits
type Config struct {
	Timeout       time.Duration // Per-task execution timeout
	MaxCallStack  int           // Maximum call stack depth
	QueueSize     int           // Pending task and outbound message buffer
	EnableConsole bool          // Route console.* to the logger
}

// DefaultConfig returns the default frame configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		MaxCallStack:  1024,
		QueueSize:     64,
		EnableConsole: true,
	}
}

// LogEntry is a captured console call
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}
