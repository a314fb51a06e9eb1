package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/pitchiq/pkg/metrics"
)

// index is the ranking built once per published snapshot.
type index struct {
	snapshot *Snapshot
	root     *node
	scores   map[string]float64
	// dense rank at each in-order position
	ranks []int
}

// SnapshotStore is an in-memory Store. Readers never block writers: each
// Publish builds a fresh index and swaps it in atomically.
type SnapshotStore struct {
	current atomic.Pointer[index]
}

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish implements Store.Publish.
func (s *SnapshotStore) Publish(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("publish: %w", ErrNoSnapshot)
	}
	start := time.Now()

	idx := &index{snapshot: snap, scores: make(map[string]float64, len(snap.Scores))}
	for _, r := range snap.Scores {
		if _, dup := idx.scores[r.PlayerID]; dup {
			continue
		}
		idx.scores[r.PlayerID] = r.Score
		idx.root = insert(idx.root, r.PlayerID, r.Name, r.Score)
	}
	all := make([]Entry, 0, len(idx.scores))
	collectTopN(idx.root, len(idx.scores), &all)
	assignRanksWithTies(all)
	idx.ranks = make([]int, len(all))
	for i, e := range all {
		idx.ranks[i] = e.Rank
	}

	s.current.Store(idx)
	metrics.RecordStageLatency("publish", float64(time.Since(start).Milliseconds()))
	return nil
}

// Current implements Store.Current.
func (s *SnapshotStore) Current(_ context.Context) (*Snapshot, error) {
	idx := s.current.Load()
	if idx == nil {
		return nil, ErrNoSnapshot
	}
	return idx.snapshot, nil
}

// Rank returns the current rank and score for a player in O(log n).
func (s *SnapshotStore) Rank(_ context.Context, playerID string) (Entry, error) {
	idx := s.current.Load()
	if idx == nil {
		return Entry{}, ErrNoSnapshot
	}
	return idx.rank(playerID)
}

// Lookup implements Store.Lookup. Snapshot and entry come from one load of
// the published index, so a concurrent Publish cannot mix runs.
func (s *SnapshotStore) Lookup(_ context.Context, playerID string) (*Snapshot, Entry, error) {
	idx := s.current.Load()
	if idx == nil {
		return nil, Entry{}, ErrNoSnapshot
	}
	e, err := idx.rank(playerID)
	if err != nil {
		return idx.snapshot, Entry{}, err
	}
	return idx.snapshot, e, nil
}

func (idx *index) rank(playerID string) (Entry, error) {
	score, ok := idx.scores[playerID]
	if !ok {
		metrics.RecordError("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	pos, n := position(idx.root, playerID, score)
	if n == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	return Entry{Rank: idx.ranks[pos], PlayerID: playerID, Name: n.name, Score: score}, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordError("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	idx := s.current.Load()
	if idx == nil {
		return nil, ErrNoSnapshot
	}
	out := make([]Entry, 0, min(n, len(idx.ranks)))
	collectTopN(idx.root, n, &out)
	for i := range out {
		out[i].Rank = idx.ranks[i]
	}
	return out, nil
}

// Count returns the number of ranked players.
func (s *SnapshotStore) Count(_ context.Context) int {
	idx := s.current.Load()
	if idx == nil {
		return 0
	}
	return len(idx.scores)
}
