package model

import "time"

type JobPosting struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	ApplyURL    string    `json:"apply_url"`
	IsActive    bool      `json:"is_active"`
	PostedAt    time.Time `json:"posted_at"`
}
