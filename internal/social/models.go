package social

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

type Friendship struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FriendEntry is a friendship seen from one user's side.
type FriendEntry struct {
	FriendshipID string `json:"friendship_id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Status       string `json:"status"`
}

// FeedItem is one event in the friend activity feed: a plant a friend
// catalogued or a trail they completed.
type FeedItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

type UserMatch struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
