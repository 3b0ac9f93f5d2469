// Package service is the host capability registry behind editor syscalls.
//
// Providers group related tools under a service ID. A syscall name is
// "service.tool", e.g. "space.readPage"; the registry routes it to the
// provider registered for "space", which receives the positional arguments
// sent by the editor.
//
// Example Usage:
//
//	registry := service.NewRegistry(logger)
//	registry.Register(spaceProvider)
//	result, err := registry.Invoke(ctx, "space.readPage", []any{"notes/a"})
package service
