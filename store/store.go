package store

import (
	"context"
	"errors"
	"time"

	"paperbot/config"
	"paperbot/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("store: not found")

// Store persists papers, users, recommendations and cluster history.
// SaveRecommendation enforces the at-most-one-per-(user,paper) invariant:
// it reports false and stores nothing when the pair already exists.
type Store interface {
	SavePaper(ctx context.Context, paper *types.Paper) error
	GetPaper(ctx context.Context, id string) (*types.Paper, error)
	RecentPapers(ctx context.Context, since time.Time, limit int) ([]*types.Paper, error)

	SaveUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	ActiveUsers(ctx context.Context) ([]*types.User, error)

	// GetPreferences creates and persists the documented defaults on first
	// access for a user with no stored preferences
	GetPreferences(ctx context.Context, userID string) (*types.UserPreference, error)
	SavePreferences(ctx context.Context, prefs *types.UserPreference) error

	SaveRecommendation(ctx context.Context, rec *types.Recommendation) (bool, error)
	RecommendedPaperIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	UserRecommendations(ctx context.Context, userID string, limit int) ([]*types.Recommendation, error)
	UnemailedRecommendations(ctx context.Context, userID string, since time.Time) ([]*types.Recommendation, error)
	MarkRead(ctx context.Context, userID, paperID string) error
	MarkBookmarked(ctx context.Context, userID, paperID string, bookmarked bool) error
	MarkEmailed(ctx context.Context, userID string, paperIDs []string) error

	SaveClusterSnapshots(ctx context.Context, snapshots []types.ClusterSnapshot) error
	RecentClusterSnapshots(ctx context.Context, since time.Time) ([]types.ClusterSnapshot, error)

	Close() error
}

// DefaultPreferences returns the documented first-access defaults for a user
func DefaultPreferences(userID string) *types.UserPreference {
	return &types.UserPreference{
		UserID:                  userID,
		MinNoveltyScore:         config.DefaultMinNoveltyScore,
		MinHotScore:             config.DefaultMinHotScore,
		MaxDailyRecommendations: config.DefaultMaxDailyRecommendations,
		PreferredCategories:     append([]string(nil), config.DefaultPreferredCategories...),
		DailyDigest:             true,
		EmailTime:               config.DefaultEmailTime,
		Timezone:                config.DefaultTimezone,
	}
}
