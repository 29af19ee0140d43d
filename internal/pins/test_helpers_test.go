package pins

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kurofune-app/bakumap/backend/internal/catalog"
	"github.com/kurofune-app/bakumap/backend/internal/snapshot"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

type memoryGateway struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{blobs: make(map[string][]byte)}
}

func (g *memoryGateway) Save(_ context.Context, key string, blob []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (g *memoryGateway) Load(_ context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	blob, ok := g.blobs[key]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func newTestStore(t *testing.T, ids ...string) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0).UTC()}
	if len(ids) == 0 {
		ids = []string{"id-1", "id-2", "id-3", "id-4"}
	}
	store, err := NewStore(StoreConfig{
		Clock:      clock.Now,
		IDProvider: &staticIDGenerator{ids: ids},
	})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	return store, clock
}

func sampleCustomEvent(year int, personIDs ...string) catalog.Event {
	return catalog.Event{
		Year:      year,
		Title:     "自作イベント",
		Summary:   "テスト用のイベント。",
		PlaceName: "京都",
		Latitude:  35.0116,
		Longitude: 135.7681,
		PersonIDs: personIDs,
	}
}

func rankPtr(r Rank) *Rank {
	return &r
}

func eventIDs(events []catalog.Event) map[string]bool {
	out := make(map[string]bool, len(events))
	for _, event := range events {
		out[event.ID] = true
	}
	return out
}
