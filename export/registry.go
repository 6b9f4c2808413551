package export

import (
	"fmt"
	"slices"
	"sync"
)

// SourceFactory creates an EntrySource for a request.
type SourceFactory func(req ExportRequest) (EntrySource, error)

// SourceRegistry stores entry source factories.
type SourceRegistry struct {
	mu        sync.RWMutex
	factories map[string]SourceFactory
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{factories: make(map[string]SourceFactory)}
}

// Register adds a source factory.
func (r *SourceRegistry) Register(key string, factory SourceFactory) error {
	if key == "" {
		return NewError(KindValidation, "source key is required", nil)
	}
	if factory == nil {
		return NewError(KindValidation, "source factory is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return NewError(KindValidation, fmt.Sprintf("source %q already registered", key), nil)
	}
	r.factories[key] = factory
	return nil
}

// Resolve finds a source factory by key.
func (r *SourceRegistry) Resolve(key string) (SourceFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[key]
	return factory, ok
}

// RendererRegistry stores renderers by format.
type RendererRegistry struct {
	mu        sync.RWMutex
	renderers map[Format]Renderer
}

// NewRendererRegistry creates a registry.
func NewRendererRegistry() *RendererRegistry {
	return &RendererRegistry{renderers: make(map[Format]Renderer)}
}

// Register adds a renderer for a format.
func (r *RendererRegistry) Register(format Format, renderer Renderer) error {
	if format == "" {
		return NewError(KindValidation, "renderer format is required", nil)
	}
	if renderer == nil {
		return NewError(KindValidation, "renderer is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.renderers[format]; exists {
		return NewError(KindValidation, fmt.Sprintf("renderer for %q already registered", format), nil)
	}
	r.renderers[format] = renderer
	return nil
}

// Resolve returns the renderer for the format.
func (r *RendererRegistry) Resolve(format Format) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[format]
	return renderer, ok
}

// Formats lists registered formats in sorted order.
func (r *RendererRegistry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]Format, 0, len(r.renderers))
	for format := range r.renderers {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}
