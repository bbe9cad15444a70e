package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Record holds the installation data for a single Jira tenant. The shared
// secret is the HMAC key the tenant signs its request tokens with.
type Record struct {
	SharedSecret string    `json:"shared_secret"`
	BaseURL      string    `json:"base_url"`
	InstalledAt  time.Time `json:"installed_at"`
}

// Registry tracks which tenants have installed the app, keyed by the
// Connect clientKey. The whole registry is loaded from disk at startup and
// rewritten as one unit on every mutation.
type Registry struct {
	mu      sync.RWMutex
	path    string
	tenants map[string]Record
}

// NewRegistry creates a registry backed by the JSON file at path. The file
// is not read until Load is called.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:    path,
		tenants: make(map[string]Record),
	}
}

// Load reads the registry file. A missing file is not an error: the
// registry starts empty and the file is created on the first install.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read tenants file: %w", err)
	}

	tenants := make(map[string]Record)
	if err := json.Unmarshal(data, &tenants); err != nil {
		return fmt.Errorf("failed to parse tenants file %s: %w", r.path, err)
	}

	r.tenants = tenants
	return nil
}

// Install inserts or replaces the record for clientKey and persists the
// registry. Re-install overwrites the previous record. A persistence
// failure is returned for reporting but the in-memory update stays in
// effect.
func (r *Registry) Install(clientKey, sharedSecret, baseURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tenants[clientKey] = Record{
		SharedSecret: sharedSecret,
		BaseURL:      baseURL,
		InstalledAt:  time.Now().UTC(),
	}

	log.Info().Str("client_key", clientKey).Str("base_url", baseURL).Msg("Tenant installed")
	return r.persist()
}

// Uninstall removes the record for clientKey if present and persists the
// registry. Removing an unknown tenant is a no-op, not an error.
func (r *Registry) Uninstall(clientKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[clientKey]; !ok {
		return nil
	}

	delete(r.tenants, clientKey)
	log.Info().Str("client_key", clientKey).Msg("Tenant uninstalled")
	return r.persist()
}

// Lookup returns the record for clientKey.
func (r *Registry) Lookup(clientKey string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.tenants[clientKey]
	return rec, ok
}

// Len returns the number of installed tenants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}

// persist rewrites the registry file through a temp file and rename so a
// crashed write never leaves a truncated registry behind. Callers must
// hold the write lock.
func (r *Registry) persist() error {
	data, err := json.MarshalIndent(r.tenants, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tenants: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".tenants-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp tenants file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write tenants file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close tenants file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace tenants file: %w", err)
	}

	return nil
}
