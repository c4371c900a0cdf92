package models

import "time"

// Post mirrors one firehose post record. Game/round references are assigned
// at ingest time when a game is running, and backfilled for posts that were
// created before the game went active. Active is a soft-delete marker.
type Post struct {
	URI       string    `json:"uri" db:"uri"`
	CID       string    `json:"cid" db:"cid"`
	IndexedAt time.Time `json:"indexed_at" db:"indexed_at"`
	Team      int       `json:"team" db:"team"`
	UserID    string    `json:"user_id" db:"user_id"`
	GameID    *int      `json:"game_id,omitempty" db:"game_id"`
	RoundID   *int      `json:"round_id,omitempty" db:"round_id"`
	LikeCount int       `json:"like_count" db:"like_count"`
	Active    bool      `json:"active" db:"active"`
}

// FeedItem is a single entry of the ranked feed.
type FeedItem struct {
	Post string `json:"post"`
}

// FeedPage is one page of the ranked feed. Cursor is empty at end of stream.
type FeedPage struct {
	Cursor string     `json:"cursor,omitempty"`
	Feed   []FeedItem `json:"feed"`
}
