package keymaster

import (
	"fmt"
	"sort"
	"sync"
)

var (
	vaultBackends = make(map[string]BackendInit)
	lock          sync.RWMutex
)

// New returns a new instance of the Vault backend identified by the
// supplied name.
func New(
	name string,
	vaultConfig map[string]interface{},
) (Vault, error) {
	lock.RLock()
	bInit, exists := vaultBackends[name]
	lock.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: vault backend %q", ErrNotSupported, name)
	}
	if vaultConfig == nil {
		vaultConfig = make(map[string]interface{})
	}
	return bInit(vaultConfig)
}

// Register adds a new vault backend
func Register(name string, bInit BackendInit) error {
	lock.Lock()
	defer lock.Unlock()
	if _, exists := vaultBackends[name]; exists {
		return fmt.Errorf("vault backend provider %v is already registered", name)
	}
	vaultBackends[name] = bInit
	return nil
}

// Backends lists the names of all registered backends in sorted order.
func Backends() []string {
	lock.RLock()
	defer lock.RUnlock()
	names := make([]string, 0, len(vaultBackends))
	for name := range vaultBackends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
