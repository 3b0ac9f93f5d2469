package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/shared/id"
)

var (
	// ErrUnknownService is returned for syscalls naming no registered service
	ErrUnknownService = errors.New("service not found")
	// ErrUnknownTool is returned by providers for tools they do not have
	ErrUnknownTool = errors.New("unknown tool")
)

// Provider interface for service implementations
type Provider interface {
	Definition() Service
	Execute(ctx context.Context, toolID string, args []any) (any, error)
}

// Registry manages service discovery and execution
type Registry struct {
	services sync.Map
	logger   *zap.Logger
}

// NewRegistry creates a new service registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// Register adds a service provider
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	if strings.Contains(def.ID, ".") {
		return fmt.Errorf("service ID %q cannot contain '.'", def.ID)
	}

	r.services.Store(def.ID, provider)
	return nil
}

// Unregister removes a service provider
func (r *Registry) Unregister(serviceID string) {
	r.services.Delete(serviceID)
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.services.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns all registered services sorted by ID
func (r *Registry) List() []Service {
	var services []Service
	r.services.Range(func(_, value any) bool {
		services = append(services, value.(Provider).Definition())
		return true
	})
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Invoke runs the syscall name ("service.tool") with args. It implements
// editor.Dispatcher.
func (r *Registry) Invoke(ctx context.Context, name string, args []any) (any, error) {
	serviceID, _, ok := strings.Cut(name, ".")
	if !ok || serviceID == "" {
		return nil, fmt.Errorf("invalid syscall name: %s", name)
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}

	callID := id.NewSyscallID()
	start := time.Now()
	result, err := provider.Execute(ctx, name, args)
	if err != nil {
		r.logger.Debug("Syscall failed",
			zap.String("call_id", string(callID)),
			zap.String("syscall", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Syscall completed",
		zap.String("call_id", string(callID)),
		zap.String("syscall", name),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]any {
	var total, totalTools int
	r.services.Range(func(_, value any) bool {
		total++
		totalTools += len(value.(Provider).Definition().Tools)
		return true
	})

	return map[string]any{
		"total_services": total,
		"total_tools":    totalTools,
	}
}
