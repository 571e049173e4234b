package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"paperbot/types"
)

const (
	paperKeyPrefix = "papers:"
	paperIndexKey  = "papers:by_published"
	paperBloomKey  = "papers:bloom"
	userKeyPrefix  = "users:"
	userSetKey     = "users:all"
	prefsKeyPrefix = "prefs:"
	recKeyPrefix   = "recs:"
	clusterHistKey = "clusters:history"

	opTimeout = 5 * time.Second
)

// Redis is the production Store backed by a Redis instance. An optional
// RedisBloom filter accelerates crawl-time duplicate checks; when the module
// is unavailable the store falls back to plain key existence.
type Redis struct {
	client   *redis.Client
	useBloom bool
}

var _ Store = (*Redis)(nil)

// NewRedisFromEnv connects using REDIS_ADDR, REDIS_PASS and REDIS_DB
func NewRedisFromEnv() (*Redis, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if d := os.Getenv("REDIS_DB"); d != "" {
		if v, err := strconv.Atoi(d); err == nil {
			db = v
		}
	}
	return NewRedis(addr, os.Getenv("REDIS_PASS"), db)
}

// NewRedis connects to Redis and verifies connectivity
func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	s := &Redis{client: client}

	// Probe for the RedisBloom module; BF.ADD auto-creates the filter
	if err := client.Do(ctx, "BF.EXISTS", paperBloomKey, "probe").Err(); err == nil {
		s.useBloom = true
	} else {
		log.Printf("RedisBloom unavailable, using key existence for duplicate checks: %v", err)
	}
	return s, nil
}

func (s *Redis) Close() error { return s.client.Close() }

// SeenPaper reports whether a paper id has been stored before. Bloom answers
// may be false-positive; callers treating "seen" as "skip re-crawl" accept
// that trade.
func (s *Redis) SeenPaper(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if s.useBloom {
		return s.client.Do(ctx, "BF.EXISTS", paperBloomKey, id).Bool()
	}
	n, err := s.client.Exists(ctx, paperKeyPrefix+id).Result()
	return n > 0, err
}

func (s *Redis) SavePaper(ctx context.Context, paper *types.Paper) error {
	b, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("failed to marshal paper %s: %w", paper.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, paperKeyPrefix+paper.ID, b, 0)
	pipe.ZAdd(ctx, paperIndexKey, redis.Z{
		Score:  float64(paper.Published.Unix()),
		Member: paper.ID,
	})
	if s.useBloom {
		pipe.Do(ctx, "BF.ADD", paperBloomKey, paper.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save paper %s: %w", paper.ID, err)
	}
	return nil
}

func (s *Redis) GetPaper(ctx context.Context, id string) (*types.Paper, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := s.client.Get(ctx, paperKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var paper types.Paper
	if err := json.Unmarshal(b, &paper); err != nil {
		return nil, fmt.Errorf("corrupt paper record %s: %w", id, err)
	}
	return &paper, nil
}

func (s *Redis) RecentPapers(ctx context.Context, since time.Time, limit int) ([]*types.Paper, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opt := &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}
	if limit > 0 {
		opt.Count = int64(limit)
	}
	ids, err := s.client.ZRevRangeByScore(ctx, paperIndexKey, opt).Result()
	if err != nil {
		return nil, err
	}

	papers := make([]*types.Paper, 0, len(ids))
	for _, id := range ids {
		paper, err := s.GetPaper(ctx, id)
		if err != nil {
			// Index entries may outlive their paper key
			log.Printf("Skipping indexed paper %s: %v", id, err)
			continue
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

func (s *Redis) SaveUser(ctx context.Context, user *types.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKeyPrefix+user.ID, b, 0)
	pipe.SAdd(ctx, userSetKey, user.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Redis) GetUser(ctx context.Context, id string) (*types.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := s.client.Get(ctx, userKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var user types.User
	if err := json.Unmarshal(b, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Redis) ActiveUsers(ctx context.Context) ([]*types.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := s.client.SMembers(ctx, userSetKey).Result()
	if err != nil {
		return nil, err
	}

	users := make([]*types.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.GetUser(ctx, id)
		if err != nil {
			log.Printf("Skipping user %s: %v", id, err)
			continue
		}
		if user.Active {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *Redis) GetPreferences(ctx context.Context, userID string) (*types.UserPreference, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := s.client.Get(ctx, prefsKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		prefs := DefaultPreferences(userID)
		if err := s.SavePreferences(ctx, prefs); err != nil {
			return nil, err
		}
		return prefs, nil
	}
	if err != nil {
		return nil, err
	}

	var prefs types.UserPreference
	if err := json.Unmarshal(b, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (s *Redis) SavePreferences(ctx context.Context, prefs *types.UserPreference) error {
	b, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Set(ctx, prefsKeyPrefix+prefs.UserID, b, 0).Err()
}

func recKey(userID, paperID string) string {
	return recKeyPrefix + userID + ":" + paperID
}

func recIndexKey(userID string) string {
	return recKeyPrefix + userID + ":index"
}

// SaveRecommendation stores the recommendation unless the (user, paper) pair
// already exists. SETNX makes the existence check and insert one atomic step,
// so concurrent passes for the same user cannot double-insert.
func (s *Redis) SaveRecommendation(ctx context.Context, rec *types.Recommendation) (bool, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	created, err := s.client.SetNX(ctx, recKey(rec.UserID, rec.PaperID), b, 0).Result()
	if err != nil || !created {
		return false, err
	}

	err = s.client.ZAdd(ctx, recIndexKey(rec.UserID), redis.Z{
		Score:  float64(rec.CreatedAt.Unix()),
		Member: rec.PaperID,
	}).Err()
	return true, err
}

func (s *Redis) RecommendedPaperIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := s.client.ZRange(ctx, recIndexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *Redis) UserRecommendations(ctx context.Context, userID string, limit int) ([]*types.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, recIndexKey(userID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	return s.loadRecommendations(ctx, userID, ids)
}

func (s *Redis) UnemailedRecommendations(ctx context.Context, userID string, since time.Time) ([]*types.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ids, err := s.client.ZRangeByScore(ctx, recIndexKey(userID), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	recs, err := s.loadRecommendations(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	pending := recs[:0]
	for _, rec := range recs {
		if !rec.Emailed {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

func (s *Redis) loadRecommendations(ctx context.Context, userID string, paperIDs []string) ([]*types.Recommendation, error) {
	recs := make([]*types.Recommendation, 0, len(paperIDs))
	for _, paperID := range paperIDs {
		b, err := s.client.Get(ctx, recKey(userID, paperID)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec types.Recommendation
		if err := json.Unmarshal(b, &rec); err != nil {
			log.Printf("Skipping corrupt recommendation %s/%s: %v", userID, paperID, err)
			continue
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}

func (s *Redis) MarkRead(ctx context.Context, userID, paperID string) error {
	return s.updateRec(ctx, userID, paperID, func(rec *types.Recommendation) {
		rec.Read = true
	})
}

func (s *Redis) MarkBookmarked(ctx context.Context, userID, paperID string, bookmarked bool) error {
	return s.updateRec(ctx, userID, paperID, func(rec *types.Recommendation) {
		rec.Bookmarked = bookmarked
	})
}

func (s *Redis) MarkEmailed(ctx context.Context, userID string, paperIDs []string) error {
	for _, paperID := range paperIDs {
		if err := s.updateRec(ctx, userID, paperID, func(rec *types.Recommendation) {
			rec.Emailed = true
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Redis) updateRec(ctx context.Context, userID, paperID string, apply func(*types.Recommendation)) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := recKey(userID, paperID)
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var rec types.Recommendation
	if err := json.Unmarshal(b, &rec); err != nil {
		return fmt.Errorf("corrupt recommendation %s: %w", key, err)
	}
	apply(&rec)

	updated, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, updated, 0).Err()
}

func (s *Redis) SaveClusterSnapshots(ctx context.Context, snapshots []types.ClusterSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	members := make([]redis.Z, 0, len(snapshots))
	for _, snapshot := range snapshots {
		b, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{
			Score:  float64(snapshot.TakenAt.Unix()),
			Member: string(b),
		})
	}
	return s.client.ZAdd(ctx, clusterHistKey, members...).Err()
}

func (s *Redis) RecentClusterSnapshots(ctx context.Context, since time.Time) ([]types.ClusterSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := s.client.ZRangeByScore(ctx, clusterHistKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]types.ClusterSnapshot, 0, len(raw))
	for _, member := range raw {
		var snapshot types.ClusterSnapshot
		if err := json.Unmarshal([]byte(member), &snapshot); err != nil {
			log.Printf("Skipping corrupt cluster snapshot: %v", err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
