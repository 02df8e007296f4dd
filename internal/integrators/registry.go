package integrators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
	"rk45":  func() dynamo.Integrator { return NewRK45() },
}

// New returns a fresh integrator by name. Integrators keep scratch buffers,
// so each run needs its own.
func New(name string) (dynamo.Integrator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (options: %s)", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
