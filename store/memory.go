package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"paperbot/types"
)

// Memory is an in-process Store for tests, demos and redis-less runs
type Memory struct {
	mu        sync.RWMutex
	papers    map[string]*types.Paper
	users     map[string]*types.User
	prefs     map[string]*types.UserPreference
	recs      map[string]map[string]*types.Recommendation // userID -> paperID -> rec
	snapshots []types.ClusterSnapshot
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		papers: make(map[string]*types.Paper),
		users:  make(map[string]*types.User),
		prefs:  make(map[string]*types.UserPreference),
		recs:   make(map[string]map[string]*types.Recommendation),
	}
}

func (m *Memory) SavePaper(_ context.Context, paper *types.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *paper
	m.papers[paper.ID] = &copied
	return nil
}

func (m *Memory) GetPaper(_ context.Context, id string) (*types.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paper, ok := m.papers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *paper
	return &copied, nil
}

func (m *Memory) RecentPapers(_ context.Context, since time.Time, limit int) ([]*types.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	papers := make([]*types.Paper, 0, len(m.papers))
	for _, p := range m.papers {
		if p.Published.Before(since) {
			continue
		}
		copied := *p
		papers = append(papers, &copied)
	}
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Published.After(papers[j].Published)
	})
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

func (m *Memory) SaveUser(_ context.Context, user *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *Memory) ActiveUsers(_ context.Context) ([]*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*types.User, 0, len(m.users))
	for _, u := range m.users {
		if !u.Active {
			continue
		}
		copied := *u
		users = append(users, &copied)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *Memory) GetPreferences(_ context.Context, userID string) (*types.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefs, ok := m.prefs[userID]
	if !ok {
		prefs = DefaultPreferences(userID)
		m.prefs[userID] = prefs
	}
	copied := *prefs
	return &copied, nil
}

func (m *Memory) SavePreferences(_ context.Context, prefs *types.UserPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *prefs
	m.prefs[prefs.UserID] = &copied
	return nil
}

func (m *Memory) SaveRecommendation(_ context.Context, rec *types.Recommendation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userRecs, ok := m.recs[rec.UserID]
	if !ok {
		userRecs = make(map[string]*types.Recommendation)
		m.recs[rec.UserID] = userRecs
	}
	if _, exists := userRecs[rec.PaperID]; exists {
		return false, nil
	}

	copied := *rec
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	userRecs[rec.PaperID] = &copied
	return true, nil
}

func (m *Memory) RecommendedPaperIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[string]struct{}, len(m.recs[userID]))
	for paperID := range m.recs[userID] {
		ids[paperID] = struct{}{}
	}
	return ids, nil
}

func (m *Memory) UserRecommendations(_ context.Context, userID string, limit int) ([]*types.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]*types.Recommendation, 0, len(m.recs[userID]))
	for _, rec := range m.recs[userID] {
		copied := *rec
		recs = append(recs, &copied)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].OverallScore > recs[j].OverallScore
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *Memory) UnemailedRecommendations(_ context.Context, userID string, since time.Time) ([]*types.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []*types.Recommendation
	for _, rec := range m.recs[userID] {
		if rec.Emailed || rec.CreatedAt.Before(since) {
			continue
		}
		copied := *rec
		recs = append(recs, &copied)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].OverallScore > recs[j].OverallScore
	})
	return recs, nil
}

func (m *Memory) MarkRead(_ context.Context, userID, paperID string) error {
	return m.updateRec(userID, paperID, func(rec *types.Recommendation) {
		rec.Read = true
	})
}

func (m *Memory) MarkBookmarked(_ context.Context, userID, paperID string, bookmarked bool) error {
	return m.updateRec(userID, paperID, func(rec *types.Recommendation) {
		rec.Bookmarked = bookmarked
	})
}

func (m *Memory) MarkEmailed(_ context.Context, userID string, paperIDs []string) error {
	for _, paperID := range paperIDs {
		if err := m.updateRec(userID, paperID, func(rec *types.Recommendation) {
			rec.Emailed = true
		}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) updateRec(userID, paperID string, apply func(*types.Recommendation)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[userID][paperID]
	if !ok {
		return ErrNotFound
	}
	apply(rec)
	return nil
}

func (m *Memory) SaveClusterSnapshots(_ context.Context, snapshots []types.ClusterSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

func (m *Memory) RecentClusterSnapshots(_ context.Context, since time.Time) ([]types.ClusterSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.ClusterSnapshot
	for _, s := range m.snapshots {
		if s.TakenAt.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
