package social

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/BarjunM/PlantDex/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sahilm/fuzzy"
)

var (
	ErrSelfFriend      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends  = errors.New("a friendship or pending request already exists")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrUserNotFound    = errors.New("user not found")
)

const (
	leaderboardTTL    = time.Minute
	leaderboardWindow = 100
	searchCandidates  = 500
)

type Service struct {
	db  db.Querier
	rdb *redis.Client
}

func NewService(database db.Querier, rdb *redis.Client) *Service {
	return &Service{db: database, rdb: rdb}
}

// SendRequest creates a pending friendship. Requests are symmetric for
// duplicate detection: an existing row in either direction blocks a new one.
func (s *Service) SendRequest(ctx context.Context, requesterID, addresseeID string) (Friendship, error) {
	if requesterID == addresseeID {
		return Friendship{}, ErrSelfFriend
	}

	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_profiles WHERE id=$1)
	`, addresseeID).Scan(&exists)
	if err != nil {
		return Friendship{}, err
	}
	if !exists {
		return Friendship{}, ErrUserNotFound
	}

	err = s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE status IN ('pending','accepted')
			  AND ((requester_id=$1 AND addressee_id=$2) OR (requester_id=$2 AND addressee_id=$1))
		)
	`, requesterID, addresseeID).Scan(&exists)
	if err != nil {
		return Friendship{}, err
	}
	if exists {
		return Friendship{}, ErrAlreadyFriends
	}

	f := Friendship{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      StatusPending,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO friendships (id, requester_id, addressee_id, status)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, f.ID, f.RequesterID, f.AddresseeID, f.Status)
	if err := row.Scan(&f.CreatedAt); err != nil {
		return Friendship{}, err
	}
	return f, nil
}

// Respond accepts or declines a pending request. Only the addressee may
// respond, and only while the request is still pending.
func (s *Service) Respond(ctx context.Context, friendshipID, userID string, accept bool) (Friendship, error) {
	status := StatusDeclined
	if accept {
		status = StatusAccepted
	}

	var f Friendship
	row := s.db.QueryRow(ctx, `
		UPDATE friendships SET status=$1
		WHERE id=$2 AND addressee_id=$3 AND status='pending'
		RETURNING id, requester_id, addressee_id, status, created_at
	`, status, friendshipID, userID)
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Friendship{}, ErrRequestNotFound
	}
	if err != nil {
		return Friendship{}, err
	}
	return f, nil
}

// ListFriends returns accepted friendships with the other party resolved.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]FriendEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id,
		       CASE WHEN f.requester_id=$1 THEN f.addressee_id ELSE f.requester_id END,
		       p.username, f.status
		FROM friendships f
		JOIN user_profiles p
		  ON p.id = CASE WHEN f.requester_id=$1 THEN f.addressee_id ELSE f.requester_id END
		WHERE f.status='accepted' AND (f.requester_id=$1 OR f.addressee_id=$1)
		ORDER BY p.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []FriendEntry{}
	for rows.Next() {
		var e FriendEntry
		if err := rows.Scan(&e.FriendshipID, &e.UserID, &e.Username, &e.Status); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListPending returns incoming requests awaiting the user's response.
func (s *Service) ListPending(ctx context.Context, userID string) ([]FriendEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.requester_id, p.username, f.status
		FROM friendships f
		JOIN user_profiles p ON p.id = f.requester_id
		WHERE f.addressee_id=$1 AND f.status='pending'
		ORDER BY f.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []FriendEntry{}
	for rows.Next() {
		var e FriendEntry
		if err := rows.Scan(&e.FriendshipID, &e.UserID, &e.Username, &e.Status); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RemoveFriend deletes a friendship the user is part of.
func (s *Service) RemoveFriend(ctx context.Context, friendshipID, userID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE id=$1 AND (requester_id=$2 OR addressee_id=$2)
	`, friendshipID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// Feed merges friends' recent plants and completed trails, newest first.
func (s *Service) Feed(ctx context.Context, userID string, limit int) ([]FeedItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	plants, err := s.feedQuery(ctx, `
		SELECT pl.id, pl.user_id, p.username, pl.common_name, pl.date_found
		FROM plants pl
		JOIN user_profiles p ON p.id = pl.user_id
		WHERE pl.user_id IN (
			SELECT CASE WHEN requester_id=$1 THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE status='accepted' AND (requester_id=$1 OR addressee_id=$1)
		)
		ORDER BY pl.date_found DESC
		LIMIT $2
	`, userID, limit, "plant")
	if err != nil {
		return nil, err
	}

	trails, err := s.feedQuery(ctx, `
		SELECT t.id, t.user_id, p.username, t.name, t.date_completed
		FROM trails t
		JOIN user_profiles p ON p.id = t.user_id
		WHERE t.date_completed IS NOT NULL
		  AND t.user_id IN (
			SELECT CASE WHEN requester_id=$1 THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE status='accepted' AND (requester_id=$1 OR addressee_id=$1)
		)
		ORDER BY t.date_completed DESC
		LIMIT $2
	`, userID, limit, "trail")
	if err != nil {
		return nil, err
	}

	items := append(plants, trails...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Service) feedQuery(ctx context.Context, sql, userID string, limit int, kind string) ([]FeedItem, error) {
	rows, err := s.db.Query(ctx, sql, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []FeedItem{}
	for rows.Next() {
		item := FeedItem{Kind: kind}
		if err := rows.Scan(&item.ID, &item.UserID, &item.Username, &item.Title, &item.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Leaderboard ranks users by total plants or total distance. Rankings are
// cached in a redis sorted set for a minute; a cold cache falls back to the
// profile counters and repopulates the set.
func (s *Service) Leaderboard(ctx context.Context, metric string, limit int) ([]LeaderboardEntry, error) {
	column, ok := leaderboardColumn(metric)
	if !ok {
		return nil, errors.New("unknown leaderboard metric")
	}
	if limit <= 0 || limit > leaderboardWindow {
		limit = 10
	}

	if s.rdb != nil {
		cached, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey(metric), 0, int64(limit-1)).Result()
		if err == nil && len(cached) > 0 {
			return s.entriesFromCache(ctx, cached)
		}
		if err != nil {
			log.Printf("leaderboard cache read failed: %v", err)
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, username, COALESCE(`+column+`,0)
		FROM user_profiles
		ORDER BY `+column+` DESC NULLS LAST, username
		LIMIT $1
	`, leaderboardWindow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cacheLeaderboard(ctx, metric, entries)

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Service) entriesFromCache(ctx context.Context, cached []redis.Z) ([]LeaderboardEntry, error) {
	ids := make([]string, 0, len(cached))
	for _, z := range cached {
		ids = append(ids, z.Member.(string))
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, username FROM user_profiles WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := map[string]string{}
	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		names[id] = username
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(cached))
	for i, z := range cached {
		id := z.Member.(string)
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   id,
			Username: names[id],
			Score:    z.Score,
		})
	}
	return entries, nil
}

func (s *Service) cacheLeaderboard(ctx context.Context, metric string, entries []LeaderboardEntry) {
	if s.rdb == nil || len(entries) == 0 {
		return
	}
	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{Score: e.Score, Member: e.UserID})
	}
	key := leaderboardKey(metric)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, leaderboardTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("leaderboard cache write failed: %v", err)
	}
}

func leaderboardColumn(metric string) (string, bool) {
	switch metric {
	case "plants":
		return "total_plants_identified", true
	case "distance":
		return "total_distance", true
	}
	return "", false
}

func leaderboardKey(metric string) string {
	return "leaderboard:" + metric
}

// SearchUsers fuzzy-matches usernames, best match first.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) ([]UserMatch, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, username FROM user_profiles ORDER BY username LIMIT $1
	`, searchCandidates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates userSource
	for rows.Next() {
		var u UserMatch
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		candidates = append(candidates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, candidates)
	results := []UserMatch{}
	for _, m := range matches {
		results = append(results, candidates[m.Index])
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

type userSource []UserMatch

func (u userSource) Len() int            { return len(u) }
func (u userSource) String(i int) string { return u[i].Username }
