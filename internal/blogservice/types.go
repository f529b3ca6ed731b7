package blogservice

import (
	"database/sql"
	"time"
)

const (
	StateDraft     = "draft"
	StatePublished = "published"

	defaultPage  = 1
	defaultLimit = 20
)

// Sort keys accepted by ListPublished, mapped to the columns they order by.
// Anything else is rejected at validation time rather than interpolated into
// the query.
var sortColumns = map[string]string{
	"timestamp":    "created_at",
	"read_count":   "read_count",
	"reading_time": "reading_time",
}

type Blog struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	AuthorID    int       `json:"author_id"`
	Author      *Author   `json:"author,omitempty"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	ReadCount   int       `json:"read_count"`
	ReadingTime string    `json:"reading_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// Author is the projection of a user attached to publicly listed blogs. It is
// a reference expansion, never the full user document.
type Author struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m *BlogModel
}
