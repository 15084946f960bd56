// Package transportreg provides a registry of CAN transport backends,
// discovered and opened by scheme name ("socketcan", "gsusb").
package transportreg

import (
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/agilex/piper-can/transport"
)

// Ref references a registered transport backend scheme.
type Ref struct {
	// Name is the scheme name, e.g. "socketcan" or "gsusb". Must be unique.
	Name string
	// Open constructs and fully configures a Device for this scheme.
	Open transport.Opener
}

var (
	mu   sync.Mutex
	byName = map[string]*Ref{}
)

// Register registers a backend scheme. Registering the same name twice is
// an error.
func Register(name string, open transport.Opener) error {
	if len(name) == 0 {
		return errors.New("transportreg: name cannot be empty")
	}
	if open == nil {
		return errors.New("transportreg: open cannot be nil")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byName[name]; ok {
		return errors.New("transportreg: scheme " + strconv.Quote(name) + " already registered")
	}
	byName[name] = &Ref{Name: name, Open: open}
	return nil
}

// Open opens a transport by scheme name with the given config.
func Open(scheme string, cfg transport.Config) (transport.Device, error) {
	mu.Lock()
	r, ok := byName[scheme]
	mu.Unlock()
	if !ok {
		return nil, errors.New("transportreg: unknown scheme " + strconv.Quote(scheme))
	}
	return r.Open(cfg)
}

// All returns the names of all registered schemes, sorted.
func All() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
