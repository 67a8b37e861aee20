package pack

import (
	"fmt"
	"sort"

	"table-manager/core/utils"
)

// Manifest records the full content hash of every distributable file at a
// given version. Keys are forward-slash relative paths, values lowercase
// hex SHA-256.
type Manifest struct {
	Version int               `json:"version"`
	Files   map[string]string `json:"files"`
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// version 0 manifest.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{}
	if _, err := utils.ReadJSON(path, m); err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = map[string]string{}
	}
	return m, nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	return utils.WriteJSON(path, m)
}

// Diff returns the sorted paths of current whose hash differs from or is
// absent in m, and the number of paths in m that current no longer has.
func (m *Manifest) Diff(current map[string]string) (changed []string, removed int) {
	for path, sum := range current {
		if m.Files[path] != sum {
			changed = append(changed, path)
		}
	}
	for path := range m.Files {
		if _, ok := current[path]; !ok {
			removed++
		}
	}
	sort.Strings(changed)
	return changed, removed
}
