// Package provider hosts the wallet provider registry and its concrete
// gateway implementations.
package provider

import (
	"fmt"
	"sort"
	"strings"

	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"
)

// Registry is a lookup table from provider identifier to implementation,
// populated at startup. New providers register a struct implementing
// ports.WalletProvider; orchestration logic is untouched.
type Registry struct {
	providers map[string]ports.WalletProvider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...ports.WalletProvider) *Registry {
	r := &Registry{providers: make(map[string]ports.WalletProvider, len(providers))}
	for _, p := range providers {
		r.providers[strings.ToLower(p.ID())] = p
	}
	return r
}

// Get resolves a provider id, case-insensitively. An unregistered id yields
// a validation error enumerating the supported set.
func (r *Registry) Get(providerID string) (ports.WalletProvider, error) {
	p, ok := r.providers[strings.ToLower(providerID)]
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf(
			"unsupported wallet provider %q (supported: %s)",
			providerID, strings.Join(r.Supported(), ", "),
		))
	}
	return p, nil
}

// Supported returns the sorted list of registered provider ids.
func (r *Registry) Supported() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
