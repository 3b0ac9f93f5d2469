package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

// ErrNoMatchingEditor is returned when no registered editor handles an
// extension
var ErrNoMatchingEditor = errors.New("no matching editor")

// Bootstrap is the markup and script that turn the frame skeleton into an
// editor
type Bootstrap struct {
	HTML   string `json:"html" yaml:"html"`
	Script string `json:"script" yaml:"script"`
}

// ContentFunc produces an editor's bootstrap content
type ContentFunc func(ctx context.Context) (Bootstrap, error)

// Definition registers an editor implementation
type Definition struct {
	Name       string
	Extensions []string
	Content    ContentFunc
}

// Handles reports whether the editor declares ext
func (d Definition) Handles(ext string) bool {
	return slices.Contains(d.Extensions, normalizeExtension(ext))
}

// Registry maps editor names to implementations. Lookups scan editors in
// registration order.
type Registry struct {
	mu      sync.RWMutex
	editors []Definition
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an editor
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("editor name cannot be empty")
	}
	if def.Content == nil {
		return fmt.Errorf("editor %s has no content provider", def.Name)
	}

	exts := make([]string, 0, len(def.Extensions))
	for _, ext := range def.Extensions {
		if ext = normalizeExtension(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return fmt.Errorf("editor %s declares no extensions", def.Name)
	}
	def.Extensions = exts

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.editors {
		if existing.Name == def.Name {
			return fmt.Errorf("editor %s already registered", def.Name)
		}
	}
	r.editors = append(r.editors, def)
	return nil
}

// Lookup finds the first editor declaring ext
func (r *Registry) Lookup(ext string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, def := range r.editors {
		if def.Handles(ext) {
			return def, nil
		}
	}
	return Definition{}, fmt.Errorf("%w for extension %q", ErrNoMatchingEditor, ext)
}

// List returns the registered editors
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.editors)
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Manifest is the YAML description of installed editors
type Manifest struct {
	Editors []ManifestEntry `yaml:"editors"`
}

// ManifestEntry describes one editor. Script and HTML may be given inline or
// as files relative to the manifest.
type ManifestEntry struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
	HTML       string   `yaml:"html"`
	HTMLFile   string   `yaml:"html_file"`
	Script     string   `yaml:"script"`
	ScriptFile string   `yaml:"script_file"`
}

// ParseManifest decodes a manifest. Files it references are resolved
// against baseDir and read each time the editor is instantiated.
func ParseManifest(data []byte, baseDir string) ([]Definition, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse editor manifest: %w", err)
	}

	defs := make([]Definition, 0, len(m.Editors))
	for _, entry := range m.Editors {
		if entry.Name == "" {
			return nil, fmt.Errorf("editor manifest entry without a name")
		}
		defs = append(defs, Definition{
			Name:       entry.Name,
			Extensions: entry.Extensions,
			Content:    entry.content(baseDir),
		})
	}
	return defs, nil
}

func (e ManifestEntry) content(baseDir string) ContentFunc {
	return func(ctx context.Context) (Bootstrap, error) {
		boot := Bootstrap{HTML: e.HTML, Script: e.Script}
		if e.HTMLFile != "" {
			data, err := os.ReadFile(filepath.Join(baseDir, e.HTMLFile))
			if err != nil {
				return Bootstrap{}, fmt.Errorf("failed to read html for editor %s: %w", e.Name, err)
			}
			boot.HTML = string(data)
		}
		if e.ScriptFile != "" {
			data, err := os.ReadFile(filepath.Join(baseDir, e.ScriptFile))
			if err != nil {
				return Bootstrap{}, fmt.Errorf("failed to read script for editor %s: %w", e.Name, err)
			}
			boot.Script = string(data)
		}
		return boot, nil
	}
}

// LoadManifest reads the manifest at path and registers its editors
func (r *Registry) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read editor manifest: %w", err)
	}
	defs, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
