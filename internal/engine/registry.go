// Package engine maps canonical analysis specifications onto the wire
// payload shapes of the supported workflow engines.
package engine

import (
	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
)

// Adapter parses and shapes analyses for one workflow engine. Adding an
// engine means implementing this interface and registering it; dispatch
// logic never switches on engine names.
type Adapter interface {
	// ParseUpload extracts the engine's required fields from an uploaded
	// specification document.
	ParseUpload(payload []byte) (*models.AnalysisSpec, error)
	// Adapt maps a canonical specification onto the engine's dispatch
	// payload.
	Adapt(spec *models.AnalysisSpec) (*models.DispatchRequest, error)
}

// Registry is the closed mapping from engine name to adapter.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register binds an adapter to an engine name, replacing any previous
// binding.
func (r *Registry) Register(name string, adapter Adapter) {
	r.adapters[name] = adapter
}

// Supported reports whether an adapter is registered for the engine.
func (r *Registry) Supported(name string) bool {
	_, ok := r.adapters[name]
	return ok
}

// Get returns the adapter for the engine, or an UnsupportedEngine error.
// This check is authoritative: callers consult it before any downstream
// call is attempted.
func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, apperrors.Newf(apperrors.UnsupportedEngine, "unknown workflow engine %q", name)
	}
	return adapter, nil
}

// Adapt looks up the engine named by spec and maps it to a dispatch
// request.
func (r *Registry) Adapt(spec *models.AnalysisSpec) (*models.DispatchRequest, error) {
	adapter, err := r.Get(spec.Engine)
	if err != nil {
		return nil, err
	}
	return adapter.Adapt(spec)
}

// Default builds a Registry holding the adapters for the given allow-list.
// Engine names without a known adapter are skipped; the registry is the
// single authority on what is supported.
func Default(allowed []string) *Registry {
	r := NewRegistry()
	for _, name := range allowed {
		switch name {
		case EngineYadage:
			r.Register(EngineYadage, Yadage{})
		}
	}
	return r
}
