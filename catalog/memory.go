package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"

	"lst-tools/geometry"
	"lst-tools/imagery"
	"lst-tools/pipeline"
)

type memoryEntry struct {
	image *imagery.Image
	cells s2.CellUnion
}

// Memory is a catalog of images held in memory, keyed by collection id.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{collections: map[string][]memoryEntry{}}
}

// Add registers images under a collection id, creating the collection if needed.
func (m *Memory) Add(collectionID string, images ...*imagery.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.collections[collectionID]
	for _, img := range images {
		entries = append(entries, memoryEntry{
			image: img,
			cells: geometry.Covering(img.Footprint(), geometry.CoverLevel),
		})
	}
	m.collections[collectionID] = entries
}

func (m *Memory) Collections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.collections))
	for id := range m.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Search returns the members acquired in the query range whose footprint
// intersects the query region, ordered by acquisition time.
func (m *Memory) Search(ctx context.Context, q pipeline.QuerySpec) (imagery.Collection, error) {
	logrus.Debug("Entered Memory.Search")
	f, err := newFilter(q)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries, ok := m.collections[q.CatalogID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, q.CatalogID)
	}

	var out imagery.Collection
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.matches(e.image.Footprint(), e.cells, e.image.Time) {
			out = append(out, e.image)
		}
	}
	logrus.Debugf("Memory.Search matched %d of %d images in %s", len(out), len(entries), q.CatalogID)
	return out.Sorted(), nil
}
