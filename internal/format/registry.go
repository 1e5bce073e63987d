package format

import (
	"fmt"
	"sort"

	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// ConflictPolicy decides what happens when two registry packages declare
// handlers for the same file type name.
type ConflictPolicy int

const (
	// PolicyStrict fails registry assembly on a duplicate type name.
	PolicyStrict ConflictPolicy = iota
	// PolicyOverride lets the later registration win; the replacement is
	// logged as a warning.
	PolicyOverride
)

// ParsePolicy converts a policy flag value into a ConflictPolicy.
func ParsePolicy(value string) (ConflictPolicy, error) {
	switch value {
	case "", "strict":
		return PolicyStrict, nil
	case "override":
		return PolicyOverride, nil
	default:
		return PolicyStrict, genieerrors.NewConfigError("policy",
			fmt.Sprintf("unknown conflict policy %q (want strict or override)", value), nil)
	}
}

// Registry maps file type names to their handlers. It is assembled once
// at startup and never mutated afterwards; re-registration requires a
// new run.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// BuildRegistry assembles a registry from the named packages. Packages
// are consulted in the given order, handlers in their registration
// order; type detection follows the same ordering.
func BuildRegistry(packages []string, policy ConflictPolicy, log *logger.Logger) (*Registry, error) {
	if len(packages) == 0 {
		return nil, genieerrors.NewConfigError("format_registry_packages",
			"at least one format registry package is required", nil)
	}

	registry := &Registry{handlers: make(map[string]Handler)}
	owner := make(map[string]string)

	for _, pkg := range packages {
		handlers, ok := packageHandlers(pkg)
		if !ok {
			return nil, genieerrors.NewConfigError("format_registry_packages",
				fmt.Sprintf("unknown registry package %q (registered: %v)", pkg, Packages()), nil)
		}

		for _, handler := range handlers {
			name := handler.Name()
			if name == "" {
				return nil, genieerrors.NewRegistryError(pkg, fmt.Errorf("handler with empty file type name"))
			}

			if previous, exists := owner[name]; exists {
				if policy == PolicyStrict {
					return nil, genieerrors.NewRegistryError(pkg, fmt.Errorf(
						"file type %q already registered by package %q", name, previous))
				}
				log.Warnf("file type %q from package %q overrides registration from %q", name, pkg, previous)
				registry.handlers[name] = handler
				owner[name] = pkg
				continue
			}

			registry.handlers[name] = handler
			registry.order = append(registry.order, name)
			owner[name] = pkg
		}
	}

	log.Debugf("format registry assembled with types %v", registry.Types())
	return registry, nil
}

// Lookup returns the handler for a file type name.
func (r *Registry) Lookup(typeName string) (Handler, error) {
	handler, ok := r.handlers[typeName]
	if !ok {
		return nil, genieerrors.NewUnknownFormatError("", typeName)
	}
	return handler, nil
}

// DetectType determines a file's type from its name by asking each
// handler in registration order. The second return is false when no
// handler claims the file.
func (r *Registry) DetectType(filename string) (string, bool) {
	for _, name := range r.order {
		if r.handlers[name].MatchFile(filename) {
			return name, true
		}
	}
	return "", false
}

// Types returns the registered file type names in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
