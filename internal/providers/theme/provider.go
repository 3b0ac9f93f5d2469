package theme

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/service"
)

// StatePath is where the active theme is persisted in the space
const StatePath = ".notebook/theme.json"

// ErrUnknownTheme is returned when setting a theme that does not exist
var ErrUnknownTheme = errors.New("unknown theme")

// Storage persists theme state
type Storage interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
}

// Provider implements theme management
type Provider struct {
	storage Storage
	logger  *zap.Logger
	themes  sync.Map

	mu        sync.RWMutex
	current   string
	listeners []func(Theme)
}

// Theme represents a UI theme
type Theme struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"` // "dark" or "light"
	Colors      map[string]string `json:"colors"`
}

type state struct {
	Current string `json:"current_theme"`
}

// NewProvider creates a theme provider, restoring the persisted theme when
// storage holds one
func NewProvider(ctx context.Context, storage Storage, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		storage: storage,
		logger:  logger,
		current: "light",
	}
	p.initializeDefaults()
	p.restore(ctx)
	return p
}

func (t *Provider) initializeDefaults() {
	dark := Theme{
		ID:          "dark",
		Name:        "Dark",
		Description: "Default dark theme",
		Type:        "dark",
		Colors: map[string]string{
			"background": "#1a1a1a",
			"surface":    "#252525",
			"primary":    "#3b82f6",
			"text":       "#ffffff",
			"textMuted":  "#a0a0a0",
			"border":     "#404040",
		},
	}

	light := Theme{
		ID:          "light",
		Name:        "Light",
		Description: "Default light theme",
		Type:        "light",
		Colors: map[string]string{
			"background": "#ffffff",
			"surface":    "#f5f5f5",
			"primary":    "#3b82f6",
			"text":       "#1a1a1a",
			"textMuted":  "#666666",
			"border":     "#e0e0e0",
		},
	}

	highContrast := Theme{
		ID:          "high-contrast",
		Name:        "High Contrast",
		Description: "High contrast theme for accessibility",
		Type:        "dark",
		Colors: map[string]string{
			"background": "#000000",
			"surface":    "#1a1a1a",
			"primary":    "#00ffff",
			"text":       "#ffffff",
			"textMuted":  "#cccccc",
			"border":     "#ffffff",
		},
	}

	t.themes.Store(dark.ID, dark)
	t.themes.Store(light.ID, light)
	t.themes.Store(highContrast.ID, highContrast)
}

func (t *Provider) restore(ctx context.Context) {
	if t.storage == nil {
		return
	}
	data, err := t.storage.ReadFile(ctx, StatePath)
	if err != nil {
		return
	}
	var s state
	if err := sonic.Unmarshal(data, &s); err != nil {
		t.logger.Warn("Ignoring unreadable theme state", zap.Error(err))
		return
	}
	if _, ok := t.themes.Load(s.Current); ok {
		t.current = s.Current
	}
}

// Definition returns service metadata
func (t *Provider) Definition() service.Service {
	return service.Service{
		ID:          "theme",
		Name:        "Theme Manager",
		Description: "Manage UI themes and appearance",
		Tools: []service.Tool{
			{
				ID:          "theme.list",
				Name:        "List Themes",
				Description: "List all available themes",
				Returns:     "array",
			},
			{
				ID:          "theme.current",
				Name:        "Get Current Theme",
				Description: "Get the currently active theme",
				Returns:     "Theme",
			},
			{
				ID:          "theme.set",
				Name:        "Set Theme",
				Description: "Set the active theme",
				Parameters: []service.Parameter{
					{Name: "id", Type: "string", Description: "Theme ID", Required: true},
				},
				Returns: "Theme",
			},
		},
	}
}

// Execute runs a theme operation
func (t *Provider) Execute(ctx context.Context, toolID string, args []any) (any, error) {
	switch toolID {
	case "theme.list":
		return t.List(), nil
	case "theme.current":
		return t.Current(), nil
	case "theme.set":
		id, err := service.StringArg(args, 0, "id")
		if err != nil {
			return nil, err
		}
		return t.Set(ctx, id)
	default:
		return nil, service.UnknownTool(toolID)
	}
}

// List returns the available themes sorted by ID
func (t *Provider) List() []Theme {
	var themes []Theme
	t.themes.Range(func(_, value any) bool {
		themes = append(themes, value.(Theme))
		return true
	})
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	return themes
}

// Current returns the active theme
func (t *Provider) Current() Theme {
	t.mu.RLock()
	id := t.current
	t.mu.RUnlock()

	val, _ := t.themes.Load(id)
	return val.(Theme)
}

// CurrentType returns the type ("dark" or "light") of the active theme
func (t *Provider) CurrentType() string {
	return t.Current().Type
}

// OnChange registers fn to run after the active theme changes
func (t *Provider) OnChange(fn func(Theme)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Set activates the theme with id and persists the choice
func (t *Provider) Set(ctx context.Context, id string) (Theme, error) {
	val, ok := t.themes.Load(id)
	if !ok {
		return Theme{}, fmt.Errorf("%w: %s", ErrUnknownTheme, id)
	}
	theme := val.(Theme)

	t.mu.Lock()
	t.current = id
	listeners := append([]func(Theme){}, t.listeners...)
	t.mu.Unlock()

	if t.storage != nil {
		data, err := sonic.Marshal(state{Current: id})
		if err == nil {
			err = t.storage.WriteFile(ctx, StatePath, data)
		}
		if err != nil {
			t.logger.Warn("Failed to persist theme", zap.String("theme", id), zap.Error(err))
		}
	}

	for _, fn := range listeners {
		fn(theme)
	}
	return theme, nil
}
