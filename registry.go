package social

import (
	"sort"
	"sync"
)

// Registry maps provider codes to Connector instances. A provider record
// without a matching connector cannot complete a login, so the registry is
// the second half of the directory lookup.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
	logger     Logger
}

// RegistryOption configures the registry.
type RegistryOption func(*Registry)

// WithConnector registers a connector under its own code.
func WithConnector(connector Connector) RegistryOption {
	return func(r *Registry) {
		if connector != nil {
			r.connectors[connector.Code()] = connector
		}
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry with the given connectors.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		connectors: map[string]Connector{},
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Set registers or replaces the connector for its code.
func (r *Registry) Set(connector Connector) {
	if connector == nil {
		return
	}

	r.mu.Lock()
	r.connectors[connector.Code()] = connector
	r.mu.Unlock()
}

// Get returns the connector registered for code, or nil when none is. The
// miss is logged; callers surface it as ErrConnectorNotFound.
func (r *Registry) Get(code string) Connector {
	r.mu.RLock()
	connector, ok := r.connectors[code]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("no connector registered for provider code=%s", code)
		return nil
	}

	return connector
}

// Has reports whether a connector is registered for code.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	_, ok := r.connectors[code]
	r.mu.RUnlock()
	return ok
}

// Codes returns the registered provider codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	codes := make([]string, 0, len(r.connectors))
	for code := range r.connectors {
		codes = append(codes, code)
	}
	r.mu.RUnlock()

	sort.Strings(codes)
	return codes
}
