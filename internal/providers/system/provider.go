package system

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/service"
)

// Provider implements system information and editor logging
type Provider struct {
	startTime time.Time
	logs      *CircularLogBuffer
	logger    *zap.Logger
}

// CircularLogBuffer is a thread-safe circular buffer for log entries
type CircularLogBuffer struct {
	entries []*LogEntry
	head    int
	size    int
	maxSize int
	mu      sync.RWMutex
}

// LogEntry represents a log entry written by an editor
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// NewProvider creates a system provider
func NewProvider(logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		startTime: time.Now(),
		logs:      NewCircularLogBuffer(1000),
		logger:    logger,
	}
}

// NewCircularLogBuffer creates a new circular buffer for logs
func NewCircularLogBuffer(maxSize int) *CircularLogBuffer {
	return &CircularLogBuffer{
		entries: make([]*LogEntry, maxSize),
		maxSize: maxSize,
	}
}

// Add inserts a log entry into the circular buffer
func (cb *CircularLogBuffer) Add(entry *LogEntry) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.entries[cb.head] = entry
	cb.head = (cb.head + 1) % cb.maxSize
	if cb.size < cb.maxSize {
		cb.size++
	}
}

// GetRecent retrieves the most recent N entries, optionally filtered by level
func (cb *CircularLogBuffer) GetRecent(limit int, levelFilter string) []LogEntry {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if limit > cb.size {
		limit = cb.size
	}

	result := make([]LogEntry, 0, limit)

	// Start from the most recent entry (head - 1) and go backwards
	for i := 0; i < cb.size && len(result) < limit; i++ {
		idx := (cb.head - 1 - i + cb.maxSize) % cb.maxSize
		entry := cb.entries[idx]
		if entry != nil && (levelFilter == "" || entry.Level == levelFilter) {
			result = append(result, *entry)
		}
	}

	return result
}

// Definition returns service metadata
func (s *Provider) Definition() service.Service {
	return service.Service{
		ID:          "system",
		Name:        "System Service",
		Description: "System information and editor logging",
		Tools: []service.Tool{
			{
				ID:          "system.info",
				Name:        "System Info",
				Description: "Get system information",
				Returns:     "object",
			},
			{
				ID:          "system.time",
				Name:        "Current Time",
				Description: "Get current server time",
				Returns:     "object",
			},
			{
				ID:          "system.log",
				Name:        "Log Message",
				Description: "Log a message to system logs",
				Parameters: []service.Parameter{
					{Name: "message", Type: "string", Description: "Log message", Required: true},
					{Name: "level", Type: "string", Description: "Log level (info/warn/error)", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          "system.getLogs",
				Name:        "Get Logs",
				Description: "Retrieve recent editor logs",
				Parameters: []service.Parameter{
					{Name: "limit", Type: "number", Description: "Number of logs to retrieve", Required: false},
					{Name: "level", Type: "string", Description: "Filter by log level", Required: false},
				},
				Returns: "array",
			},
		},
	}
}

// Execute runs a system operation
func (s *Provider) Execute(ctx context.Context, toolID string, args []any) (any, error) {
	switch toolID {
	case "system.info":
		return s.info(), nil
	case "system.time":
		return s.currentTime(), nil
	case "system.log":
		return s.log(args)
	case "system.getLogs":
		return s.getLogs(args), nil
	default:
		return nil, service.UnknownTool(toolID)
	}
}

func (s *Provider) info() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"cpus":           runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_alloc":   m.Alloc / 1024 / 1024, // MB
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	}
}

func (s *Provider) currentTime() map[string]any {
	now := time.Now()
	return map[string]any{
		"timestamp": now.Unix(),
		"iso":       now.Format(time.RFC3339),
		"unix_ms":   now.UnixMilli(),
	}
}

func (s *Provider) log(args []any) (any, error) {
	message, err := service.StringArg(args, 0, "message")
	if err != nil {
		return nil, err
	}
	level := service.OptionalStringArg(args, 1, "info")

	s.logs.Add(&LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})

	switch level {
	case "error":
		s.logger.Error(message, zap.String("source", "editor"))
	case "warn":
		s.logger.Warn(message, zap.String("source", "editor"))
	default:
		s.logger.Info(message, zap.String("source", "editor"))
	}
	return true, nil
}

func (s *Provider) getLogs(args []any) []LogEntry {
	limit := 100
	if len(args) > 0 {
		if l, ok := args[0].(float64); ok && l > 0 {
			limit = int(l)
		}
	}
	return s.logs.GetRecent(limit, service.OptionalStringArg(args, 1, ""))
}
