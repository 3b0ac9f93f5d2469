package service

import (
	"fmt"
)

// StringArg returns args[i] as a string
func StringArg(args []any, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %s", name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", name)
	}
	return s, nil
}

// OptionalStringArg returns args[i] as a string, or def when absent
func OptionalStringArg(args []any, i int, def string) string {
	if i >= len(args) || args[i] == nil {
		return def
	}
	if s, ok := args[i].(string); ok {
		return s
	}
	return def
}

// UnknownTool is the error providers return for unhandled tool IDs
func UnknownTool(toolID string) error {
	return fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
}

// OptionalIntArg returns args[i] as an int, or def when absent. JSON numbers
// arrive as float64.
func OptionalIntArg(args []any, i int, def int) int {
	if i >= len(args) || args[i] == nil {
		return def
	}
	switch n := args[i].(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}
