// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// BlogStatus represents the moderation state of a blog post.
type BlogStatus string

const (
	// StatusDraft exists in the schema but no operation produces it.
	// It is reserved for a future save-without-submitting flow.
	StatusDraft     BlogStatus = "draft"
	StatusPending   BlogStatus = "pending"
	StatusPublished BlogStatus = "published"
	StatusRejected  BlogStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s BlogStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// Categories is the fixed set of values a post's category may take.
var Categories = []string{
	"Technology", "Travel", "Food", "Lifestyle", "Health",
	"Business", "Education", "Entertainment", "Sports", "Other",
}

// ValidCategory reports whether the given category is in the fixed set.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Blog represents a single authored post carrying a moderation status.
// ImageURL and ImageKey always exist together: the key identifies the
// stored object so it can be released when the post is deleted or the
// image replaced.
type Blog struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Subtitle  string     `json:"subtitle"`
	Body      string     `json:"content"`
	Category  string     `json:"category"`
	ImageURL  string     `json:"image_url"`
	ImageKey  string     `json:"-"` // Storage-internal identifier
	ThumbKey  *string    `json:"-"`
	ThumbURL  string     `json:"thumb_url,omitempty"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Status    BlogStatus `json:"status"`
	Views     int64      `json:"views"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsPublished returns true if the post is visible to unauthenticated readers.
func (b *Blog) IsPublished() bool {
	return b.Status == StatusPublished
}

// VisibleTo reports whether the post may be returned to the given caller
// through a single-fetch operation. Unpublished posts are visible only to
// their owner and to admins; everyone else gets not-found so the post's
// existence is not leaked.
func (b *Blog) VisibleTo(caller *User) bool {
	if b.IsPublished() {
		return true
	}
	if caller == nil {
		return false
	}
	return caller.IsAdmin() || caller.ID == b.AuthorID
}

// InitialStatus returns the status assigned to a newly created post.
// Admin-authored posts go live immediately; everything else awaits review.
func InitialStatus(role Role) BlogStatus {
	if role == RoleAdmin {
		return StatusPublished
	}
	return StatusPending
}

// BlogWithAuthor pairs a post with its author's public identity for
// listing responses. AuthorEmail is only populated on admin listings.
type BlogWithAuthor struct {
	Blog
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email,omitempty"`
}

// TrendingBlog adds the computed growth-rate figure to a listed post.
type TrendingBlog struct {
	BlogWithAuthor
	GrowthRate float64 `json:"growth_rate"`
}

// GrowthRate returns the post's views-per-hour since creation, the
// ranking signal attached to trending listings. Posts younger than one
// hour are treated as one hour old to avoid inflating brand-new posts.
func GrowthRate(views int64, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 1 {
		hours = 1
	}
	rate := float64(views) / hours
	// Round to two decimals for a stable wire representation.
	return float64(int64(rate*100+0.5)) / 100
}
