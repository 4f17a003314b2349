package models

import "time"

// Message is one entry of a principal's conversation. User turns carry a
// sentiment score; bot turns are always neutral.
type Message struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Sentiment float64   `json:"sentiment"`
	CreatedAt time.Time `json:"created_at"`
}
