package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Config is tool-construction configuration, injected at Get time.
type Config map[string]any

// String returns the string config value for key, or "" if absent.
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Value returns the raw config value for key.
func (c Config) Value(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// Constructor builds a tool instance from injected configuration.
// Constructors must be side-effect free; tools that need placeholder
// config for listing purposes should tolerate an empty Config.
type Constructor func(cfg Config) (Tool, error)

// Registry maps tool names to constructors. Registration happens once at
// startup before any stage runs; the read path (Get/List) is lock-free
// and must not race with Register.
type Registry struct {
	log   zerolog.Logger
	tools map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		log:   log,
		tools: make(map[string]Constructor),
	}
}

// Register adds a constructor under name. Registering a duplicate name
// logs a warning and overwrites: last registration wins, which lets
// tests substitute fakes for production tools.
func (r *Registry) Register(name string, ctor Constructor) {
	if _, ok := r.tools[name]; ok {
		r.log.Warn().Str("tool", name).Msg("overwriting existing tool registration")
	}
	r.tools[name] = ctor
}

// Get constructs the named tool with the given config. An unknown name
// is a caller error and fails fast.
func (r *Registry) Get(name string, cfg Config) (Tool, error) {
	ctor, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q not registered (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	t, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct tool %q: %w", name, err)
	}
	return t, nil
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns metadata for registered tools, optionally filtered to
// those carrying at least one of the given tags. Tools whose constructor
// rejects placeholder config are skipped rather than failing the listing.
func (r *Registry) List(tags ...string) []Metadata {
	var metas []Metadata
	for _, name := range r.Names() {
		t, err := r.tools[name](Config{})
		if err != nil {
			r.log.Debug().Str("tool", name).Err(err).Msg("skipping tool in listing")
			continue
		}
		meta := t.Meta()
		if len(tags) == 0 {
			metas = append(metas, meta)
			continue
		}
		for _, tag := range tags {
			if meta.HasTag(tag) {
				metas = append(metas, meta)
				break
			}
		}
	}
	return metas
}
