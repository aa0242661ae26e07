package secrets

import (
	"context"
	"fmt"
	"sync"
)

// Manager selects a credential source by name.
type Manager struct {
	mu            sync.RWMutex
	sources       map[string]Source
	defaultSource string
}

// NewManager returns a manager whose Accounts call uses defaultSource.
func NewManager(defaultSource string) *Manager {
	return &Manager{
		sources:       make(map[string]Source),
		defaultSource: defaultSource,
	}
}

// Register adds a source under its name. Registering a name twice fails.
func (m *Manager) Register(src Source) error {
	if src == nil {
		return fmt.Errorf("source cannot be nil")
	}
	name := src.Name()
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sources[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	m.sources[name] = src
	return nil
}

// Accounts returns the credential list of the default source.
func (m *Manager) Accounts(ctx context.Context) ([]Account, error) {
	return m.AccountsFrom(ctx, m.defaultSource)
}

// AccountsFrom returns the credential list of the named source.
func (m *Manager) AccountsFrom(ctx context.Context, name string) ([]Account, error) {
	m.mu.RLock()
	src, ok := m.sources[name]
	m.mu.RUnlock()
	if !ok {
		return nil, &SourceError{Source: name, Err: ErrSourceNotFound}
	}

	accounts, err := src.Accounts(ctx)
	if err != nil {
		return nil, &SourceError{Source: name, Err: err}
	}
	return accounts, nil
}
