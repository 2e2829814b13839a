package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/isolate/internal/ir"
)

// ManifestFile is the on-disk layout of a manifest.
//
//	host_id: isolate
//	items:
//	  - id: abcdef
//	    name: Dark Reader
//	    type: extension
//	    enabled: true
type ManifestFile struct {
	HostID string          `yaml:"host_id"`
	Items  []ManifestEntry `yaml:"items"`
}

// ManifestEntry is one installed add-on.
type ManifestEntry struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Enabled     bool      `yaml:"enabled"`
	Description string    `yaml:"description,omitempty"`
	Icons       []ir.Icon `yaml:"icons,omitempty"`
}

// Manifest is a Registry backed by a YAML file.
//
// Every SetActive rewrites the file through a temp file and rename before
// returning, so another process reading the manifest sees either the old
// or the new status, never a torn file.
type Manifest struct {
	mu     sync.Mutex
	path   string
	hostID string
	kind   string
}

// NewManifest opens the manifest at path. hostID, if non-empty, overrides
// the host_id in the file; kind defaults to ir.DefaultKind.
func NewManifest(path, hostID, kind string) (*Manifest, error) {
	if kind == "" {
		kind = ir.DefaultKind
	}
	m := &Manifest{path: path, hostID: hostID, kind: kind}
	// Fail early on a missing or malformed file.
	if _, err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return m.path
}

// ListCandidates returns candidate items in file order.
func (m *Manifest) ListCandidates(ctx context.Context) (ir.ItemSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.load()
	if err != nil {
		return nil, err
	}
	hostID := m.effectiveHostID(file)

	items := ir.ItemSet{}
	for _, entry := range file.Items {
		if entry.ID == hostID || entry.Type != m.kind {
			continue
		}
		items = append(items, entry.item())
	}
	return items, nil
}

// All returns every entry, candidates or not, in file order.
func (m *Manifest) All(ctx context.Context) (ir.ItemSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.load()
	if err != nil {
		return nil, err
	}
	items := make(ir.ItemSet, len(file.Items))
	for i, entry := range file.Items {
		items[i] = entry.item()
	}
	return items, nil
}

// SetActive sets id's status and persists the file. Setting the current
// status again still succeeds.
func (m *Manifest) SetActive(ctx context.Context, id string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.load()
	if err != nil {
		return err
	}
	if id == m.effectiveHostID(file) {
		return fmt.Errorf("set %s: refusing to toggle the host", id)
	}
	idx := file.index(id)
	if idx < 0 {
		return fmt.Errorf("set %s: %w", id, ErrUnknownItem)
	}
	if file.Items[idx].Enabled == active {
		return nil
	}
	file.Items[idx].Enabled = active
	return m.save(file)
}

// Active returns id's current status.
func (m *Manifest) Active(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.load()
	if err != nil {
		return false, err
	}
	idx := file.index(id)
	if idx < 0 {
		return false, fmt.Errorf("read %s: %w", id, ErrUnknownItem)
	}
	return file.Items[idx].Enabled, nil
}

func (m *Manifest) effectiveHostID(file *ManifestFile) string {
	if m.hostID != "" {
		return m.hostID
	}
	return file.HostID
}

// load reads and strictly decodes the manifest.
func (m *Manifest) load() (*ManifestFile, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var file ManifestFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", m.path, err)
	}
	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", m.path, err)
	}
	return &file, nil
}

// save writes the manifest atomically.
func (m *Manifest) save(file *ManifestFile) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".manifest-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

func (f *ManifestFile) validate() error {
	seen := make(map[string]bool, len(f.Items))
	for i, entry := range f.Items {
		if entry.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
		if entry.Type == "" {
			return fmt.Errorf("items[%d]: type is required", i)
		}
		if seen[entry.ID] {
			return fmt.Errorf("items[%d]: duplicate id %q", i, entry.ID)
		}
		seen[entry.ID] = true
	}
	return nil
}

func (f *ManifestFile) index(id string) int {
	for i, entry := range f.Items {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

func (e ManifestEntry) item() ir.Item {
	name := e.Name
	if name == "" {
		name = e.ID
	}
	return ir.Item{
		ID:          e.ID,
		Name:        name,
		Kind:        e.Type,
		Active:      e.Enabled,
		Description: e.Description,
		Icons:       e.Icons,
	}
}
