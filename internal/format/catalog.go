package format

import (
	"fmt"
	"sort"
	"sync"
)

// The package catalog maps registry package names to the handlers they
// export. Registry packages call RegisterPackage from init(), so the set
// of available packages is fixed by the host binary's imports rather
// than by runtime discovery.
var (
	catalogMu sync.RWMutex
	catalog   = make(map[string][]Handler)
)

// RegisterPackage publishes a registry package's handlers under the given
// package name. Registering the same package name twice or registering a
// nil handler is a programmer error and panics.
func RegisterPackage(name string, handlers ...Handler) {
	if name == "" {
		panic("format: registry package name is empty")
	}
	if len(handlers) == 0 {
		panic(fmt.Sprintf("format: registry package %q exports no handlers", name))
	}
	for _, h := range handlers {
		if h == nil {
			panic(fmt.Sprintf("format: registry package %q exports a nil handler", name))
		}
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()

	if _, exists := catalog[name]; exists {
		panic(fmt.Sprintf("format: registry package %q already registered", name))
	}
	catalog[name] = handlers
}

// Packages returns the registered package names in sorted order.
func Packages() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func packageHandlers(name string) ([]Handler, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	handlers, ok := catalog[name]
	return handlers, ok
}

// resetCatalog clears the package catalog (for tests).
func resetCatalog() {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalog = make(map[string][]Handler)
}
