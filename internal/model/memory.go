package model

import (
	"time"
)

// Memory is one free-form note in the Penseira: a title/content pair the
// assistant may be primed with across sessions.
type Memory struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListMemoriesResponse is the response for listing memory notes.
type ListMemoriesResponse struct {
	Memories []Memory `json:"memories"`
	Total    int      `json:"total"`
}
