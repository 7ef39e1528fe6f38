package provider

import (
	"errors"
	"strings"
)

var (
	ErrProviderNotSupported = errors.New("provider is not supported")
	ErrDocumentTimeout      = errors.New("invoice document not available")
	ErrSignatureInvalid     = errors.New("event signature is invalid")
)

type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	items := make(map[string]Provider, len(providers))
	for _, p := range providers {
		items[p.Name()] = p
	}
	return &Registry{providers: items}
}

func (r *Registry) Get(name string) (Provider, error) {
	provider, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrProviderNotSupported
	}
	return provider, nil
}
