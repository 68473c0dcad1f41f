package dashboard

import (
	"context"
	"time"

	"pitchdesk/internal/model"
	"pitchdesk/internal/store"
)

const (
	SnapshotVersion = 1
	SnapshotKey     = "dashboardCache"
)

// Snapshot is the serialized list state kept in the session namespace.
type Snapshot struct {
	Version int    `json:"version"`
	Context string `json:"context"`
	// SavedAt is the time of the write; old snapshots are not trusted.
	SavedAt time.Time `json:"savedAt"`

	Items           []model.Record   `json:"items"`
	PageNumber      int              `json:"pageNumber"`
	PageSize        int              `json:"pageSize"`
	TotalCount      int              `json:"totalCount"`
	SearchTerm      string           `json:"searchTerm"`
	DebouncedSearch string           `json:"debouncedSearch"`
	TimeFilter      model.TimeFilter `json:"timeFilter"`
	ScrollOffset    int              `json:"scrollOffset"`
}

// Snapshot copies the current state.
func (c *ListController) Snapshot(contextID string, now time.Time) Snapshot {
	items := make([]model.Record, len(c.Page.Items))
	copy(items, c.Page.Items)
	return Snapshot{
		Version:         SnapshotVersion,
		Context:         contextID,
		SavedAt:         now,
		Items:           items,
		PageNumber:      c.Page.Number,
		PageSize:        c.Page.Size,
		TotalCount:      c.Page.TotalCount,
		SearchTerm:      c.Filter.SearchTerm,
		DebouncedSearch: c.Filter.DebouncedSearch,
		TimeFilter:      c.Filter.TimeFilter,
		ScrollOffset:    c.ScrollOffset,
	}
}

// Usable reports whether s was written by this browsing context, with this
// page size, no longer than maxAge ago. maxAge <= 0 disables the age check.
func (s Snapshot) Usable(contextID string, pageSize int, now time.Time, maxAge time.Duration) bool {
	if s.Version != SnapshotVersion || s.Context != contextID {
		return false
	}
	if s.PageSize != pageSize || s.PageNumber < 1 {
		return false
	}
	if maxAge > 0 && now.Sub(s.SavedAt) > maxAge {
		return false
	}
	return true
}

// SnapshotStore persists the snapshot in the session namespace, so logging
// out or a 401 drops it together with the token.
type SnapshotStore struct {
	slot store.Slot[Snapshot]
}

func NewSnapshotStore(kv *store.KV) *SnapshotStore {
	return &SnapshotStore{slot: store.Slot[Snapshot]{KV: kv, Namespace: store.NamespaceSession, Key: SnapshotKey}}
}

func (s *SnapshotStore) Load(ctx context.Context) (Snapshot, bool, error) {
	return s.slot.Load(ctx)
}

func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	return s.slot.Save(ctx, snap)
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.slot.Clear(ctx)
}
