package modkit

import (
	"net/http"
)

// Built is the resolved option set a module reads at construction
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Build applies opts over defaults
// def supplies the name and prefix a module uses when the caller does not
func Build(def Built, opts ...Option) Built {
	c := buildCfg{name: def.Name, prefix: def.Prefix}
	for _, o := range opts {
		o(&c)
	}
	return Built{
		Name:   c.name,
		Prefix: c.prefix,
		Mw:     append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:  c.ports,
	}
}

// PortsAs returns the injected ports as T when present
func PortsAs[T any](b Built) (T, bool) {
	v, ok := b.Ports.(T)
	return v, ok
}
