package registry

import (
	"context"
	"fmt"
	"roomres/internal/reservations/repository"
	"roomres/pkg/logger"
	"sort"
	"sync"
)

// Registry maps resource names to their storage namespaces. Lookups are safe
// from any goroutine; Ensure is meant to be called by the admission worker only.
type Registry struct {
	mu         sync.RWMutex
	store      repository.Store
	namespaces map[string]repository.Namespace
	log        *logger.Logger
}

func New(store repository.Store, log *logger.Logger) *Registry {
	return &Registry{
		store:      store,
		namespaces: make(map[string]repository.Namespace),
		log:        log,
	}
}

// Load registers every namespace already present in the store.
func (r *Registry) Load(ctx context.Context) error {
	namespaces, err := r.store.Namespaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ns := range namespaces {
		r.namespaces[ns.Name()] = ns
	}

	r.log.Info("Resource registry loaded", "resources", len(namespaces))
	return nil
}

func (r *Registry) Lookup(name string) (repository.Namespace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.namespaces[name]
	return ns, ok
}

// Ensure returns the namespace for name, creating it in the store on first use.
func (r *Registry) Ensure(ctx context.Context, name string) (repository.Namespace, error) {
	if ns, ok := r.Lookup(name); ok {
		return ns, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ns, ok := r.namespaces[name]; ok {
		return ns, nil
	}

	ns, err := r.store.CreateNamespace(ctx, name)
	if err != nil {
		return nil, err
	}
	r.namespaces[name] = ns

	r.log.Info("Resource created", "resource", name)
	return ns, nil
}

// Names returns the known resource names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
