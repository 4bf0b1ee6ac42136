package parser

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"book-scraper/model"
)

// Registry picks a parser for a target address by host.
type Registry struct {
	parsers  map[string]model.Parser
	hosts    map[string]string
	fallback string
}

// NewRegistry builds the built-in parsers plus any custom layouts. hosts maps
// a host name to a parser name; fallback is used for every other host.
func NewRegistry(fallback string, hosts map[string]string, custom map[string]Layout) (*Registry, error) {
	r := &Registry{
		parsers:  make(map[string]model.Parser),
		hosts:    make(map[string]string),
		fallback: strings.ToLower(fallback),
	}
	if r.fallback == "" {
		r.fallback = "novelbin"
	}

	for name, layout := range builtin {
		p, err := NewSelector(name, layout)
		if err != nil {
			return nil, err
		}
		r.parsers[name] = p
	}
	for name, layout := range custom {
		name = strings.ToLower(name)
		p, err := NewSelector(name, layout)
		if err != nil {
			return nil, err
		}
		r.parsers[name] = p
	}

	if _, ok := r.parsers[r.fallback]; !ok {
		return nil, fmt.Errorf("unknown default parser %q", fallback)
	}
	for host, name := range hosts {
		name = strings.ToLower(name)
		if _, ok := r.parsers[name]; !ok {
			return nil, fmt.Errorf("unknown parser %q for host %s", name, host)
		}
		r.hosts[strings.ToLower(host)] = name
	}
	return r, nil
}

// Register adds or replaces a parser.
func (r *Registry) Register(p model.Parser) {
	r.parsers[strings.ToLower(p.Name())] = p
}

func (r *Registry) For(address string) (model.Parser, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, model.Structuralf("invalid address %q: %v", address, err)
	}
	name := r.fallback
	if mapped, ok := r.hosts[strings.ToLower(u.Hostname())]; ok {
		name = mapped
	}
	return r.parsers[name], nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
