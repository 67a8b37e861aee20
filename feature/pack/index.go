package pack

import (
	"fmt"
	"sort"

	"table-manager/core/utils"
)

// Entry describes one published patch archive.
type Entry struct {
	Version   int    `json:"version"`
	URL       string `json:"url"`
	SHA256    string `json:"sha256"`
	FileCount int    `json:"fileCount"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Index is the ordered list of published patches consumed by clients.
type Index struct {
	LatestVersion int     `json:"latestVersion"`
	Patches       []Entry `json:"patches"`
}

// LoadIndex reads the index at path. found is false when it does not exist.
func LoadIndex(path string) (idx *Index, found bool, err error) {
	idx = &Index{}
	found, err = utils.ReadJSON(path, idx)
	if err != nil {
		return nil, found, fmt.Errorf("failed to load patch index: %w", err)
	}
	if idx.Patches == nil {
		idx.Patches = []Entry{}
	}
	return idx, found, nil
}

// Save writes the index atomically.
func (idx *Index) Save(path string) error {
	return utils.WriteJSON(path, idx)
}

// Append records e and advances LatestVersion.
func (idx *Index) Append(e Entry) {
	idx.Patches = append(idx.Patches, e)
	if e.Version > idx.LatestVersion {
		idx.LatestVersion = e.Version
	}
}

// Ascending returns the entries ordered by version.
func (idx *Index) Ascending() []Entry {
	out := append([]Entry(nil), idx.Patches...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
