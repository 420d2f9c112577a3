package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusScheduled Status = "scheduled"
	StatusArchived  Status = "archived"
)

// DefaultCapacity is how many users may hold the same challenge at once.
const DefaultCapacity = 5

type Challenge struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	CategoryID   string     `json:"category_id" db:"category_id"`
	Text         string     `json:"text" db:"text"`
	Description  string     `json:"description,omitempty" db:"description"`
	Capacity     int        `json:"capacity" db:"capacity"`
	ReservedBy   []int64    `json:"reserved_by" db:"reserved_by"`
	Status       Status     `json:"status" db:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	CreatedBy    int64      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

func (c *Challenge) HasRoom() bool {
	return len(c.ReservedBy) < c.Capacity
}

type CreateRequest struct {
	CategoryID   string     `json:"category_id"`
	Text         string     `json:"text"`
	Description  string     `json:"description,omitempty"`
	Capacity     int        `json:"capacity,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Categories returns the fixed challenge catalog categories.
func Categories() []Category {
	return []Category{
		{ID: "fast", Title: "Fast"},
		{ID: "funny", Title: "Funny"},
		{ID: "smart", Title: "Smart"},
		{ID: "dance", Title: "Dance"},
		{ID: "creative", Title: "Creative"},
		{ID: "sport", Title: "Sport"},
		{ID: "music", Title: "Music"},
		{ID: "other", Title: "Other"},
	}
}

func ValidCategory(id string) bool {
	for _, c := range Categories() {
		if c.ID == id {
			return true
		}
	}
	return false
}
