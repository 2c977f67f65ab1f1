package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

func TestSendRequestRejectsSelf(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.SendRequest(context.Background(), "user-1", "user-1"); !errors.Is(err, ErrSelfFriend) {
		t.Fatalf("expected ErrSelfFriend, got %v", err)
	}
}

func TestSendRequestRejectsDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM user_profiles`).
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM friendships`).
		WithArgs("user-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	svc := NewService(mock, nil)
	if _, err := svc.SendRequest(context.Background(), "user-1", "user-2"); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSendRequestCreatesPending(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM user_profiles`).
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM friendships`).
		WithArgs("user-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO friendships`).
		WithArgs(pgxmock.AnyArg(), "user-1", "user-2", StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock, nil)
	friendship, err := svc.SendRequest(context.Background(), "user-1", "user-2")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if friendship.Status != StatusPending {
		t.Errorf("expected pending, got %q", friendship.Status)
	}
	if friendship.ID == "" {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRespondOnlyAddressee(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`UPDATE friendships SET status`).
		WithArgs(StatusAccepted, "f-1", "intruder").
		WillReturnRows(pgxmock.NewRows([]string{"id", "requester_id", "addressee_id", "status", "created_at"}))

	svc := NewService(mock, nil)
	if _, err := svc.Respond(context.Background(), "f-1", "intruder", true); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestRespondAccepts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`UPDATE friendships SET status`).
		WithArgs(StatusAccepted, "f-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "requester_id", "addressee_id", "status", "created_at"}).
			AddRow("f-1", "user-1", "user-2", StatusAccepted, time.Now()))

	svc := NewService(mock, nil)
	friendship, err := svc.Respond(context.Background(), "f-1", "user-2", true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if friendship.Status != StatusAccepted {
		t.Errorf("expected accepted, got %q", friendship.Status)
	}
}

func TestFeedMergesNewestFirst(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM plants pl`).
		WithArgs("user-1", 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "username", "common_name", "date_found"}).
			AddRow("pl-1", "user-2", "ada", "Trillium", base.Add(2*time.Hour)).
			AddRow("pl-2", "user-3", "bo", "White Oak", base))

	mock.ExpectQuery(`FROM trails t`).
		WithArgs("user-1", 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "username", "name", "date_completed"}).
			AddRow("t-1", "user-2", "ada", "River Loop", base.Add(time.Hour)))

	svc := NewService(mock, nil)
	items, err := svc.Feed(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != "pl-1" || items[1].ID != "t-1" || items[2].ID != "pl-2" {
		t.Errorf("wrong order: %s, %s, %s", items[0].ID, items[1].ID, items[2].ID)
	}
	if items[1].Kind != "trail" {
		t.Errorf("expected trail kind, got %q", items[1].Kind)
	}
}

func TestLeaderboardFallbackPopulatesCache(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	mock.ExpectQuery(`FROM user_profiles`).
		WithArgs(leaderboardWindow).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "score"}).
			AddRow("user-1", "ada", float64(12)).
			AddRow("user-2", "bo", float64(7)))

	svc := NewService(mock, rdb)
	entries, err := svc.Leaderboard(context.Background(), "plants", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].UserID != "user-1" || entries[0].Score != 12 {
		t.Errorf("unexpected top entry %+v", entries[0])
	}

	members, err := rdb.ZRevRange(context.Background(), leaderboardKey("plants"), 0, -1).Result()
	if err != nil {
		t.Fatalf("zrevrange: %v", err)
	}
	if len(members) != 2 || members[0] != "user-1" {
		t.Errorf("cache not populated: %v", members)
	}
	if srv.TTL(leaderboardKey("plants")) != leaderboardTTL {
		t.Errorf("expected ttl %v, got %v", leaderboardTTL, srv.TTL(leaderboardKey("plants")))
	}
}

func TestLeaderboardServesFromCache(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	key := leaderboardKey("distance")
	rdb.ZAdd(context.Background(), key,
		redis.Z{Score: 42.5, Member: "user-1"},
		redis.Z{Score: 30, Member: "user-2"})

	// only the username lookup hits postgres
	mock.ExpectQuery(`SELECT id, username FROM user_profiles WHERE id = ANY`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).
			AddRow("user-1", "ada").
			AddRow("user-2", "bo"))

	svc := NewService(mock, rdb)
	entries, err := svc.Leaderboard(context.Background(), "distance", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != "user-1" || entries[0].Username != "ada" || entries[0].Score != 42.5 {
		t.Errorf("unexpected top entry %+v", entries[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLeaderboardUnknownMetric(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.Leaderboard(context.Background(), "karma", 10); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestSearchUsersRanksByMatch(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, username FROM user_profiles ORDER BY username`).
		WithArgs(searchCandidates).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).
			AddRow("u-1", "alpine_ada").
			AddRow("u-2", "bo_hiker").
			AddRow("u-3", "ada"))

	svc := NewService(mock, nil)
	matches, err := svc.SearchUsers(context.Background(), "ada", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Username != "ada" {
		t.Errorf("expected exact match first, got %q", matches[0].Username)
	}
	for _, m := range matches {
		if m.Username == "bo_hiker" {
			t.Error("bo_hiker should not match")
		}
	}
}
