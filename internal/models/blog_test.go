package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestInitialStatus verifies the creation rule: admin posts publish
// immediately, all other posts enter the review queue.
func TestInitialStatus(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want BlogStatus
	}{
		{name: "admin publishes directly", role: RoleAdmin, want: StatusPublished},
		{name: "reader goes to pending", role: RoleReader, want: StatusPending},
		{name: "empty role goes to pending", role: Role(""), want: StatusPending},
		{name: "unknown role goes to pending", role: Role("moderator"), want: StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialStatus(tt.role); got != tt.want {
				t.Errorf("InitialStatus(%q) = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

// TestBlogVisibleTo verifies the unified single-fetch visibility rule:
// published, or owner, or admin.
func TestBlogVisibleTo(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()

	owner := &User{ID: ownerID, Role: RoleReader}
	other := &User{ID: otherID, Role: RoleReader}
	admin := &User{ID: uuid.New(), Role: RoleAdmin}

	tests := []struct {
		name   string
		status BlogStatus
		caller *User
		want   bool
	}{
		{name: "published visible to anonymous", status: StatusPublished, caller: nil, want: true},
		{name: "published visible to unrelated reader", status: StatusPublished, caller: other, want: true},
		{name: "pending hidden from anonymous", status: StatusPending, caller: nil, want: false},
		{name: "pending hidden from unrelated reader", status: StatusPending, caller: other, want: false},
		{name: "pending visible to owner", status: StatusPending, caller: owner, want: true},
		{name: "pending visible to admin", status: StatusPending, caller: admin, want: true},
		{name: "rejected hidden from anonymous", status: StatusRejected, caller: nil, want: false},
		{name: "rejected visible to owner", status: StatusRejected, caller: owner, want: true},
		{name: "draft hidden from unrelated reader", status: StatusDraft, caller: other, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Blog{Status: tt.status, AuthorID: ownerID}
			if got := b.VisibleTo(tt.caller); got != tt.want {
				t.Errorf("VisibleTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlogStatusValid(t *testing.T) {
	for _, s := range []BlogStatus{StatusDraft, StatusPending, StatusPublished, StatusRejected} {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	for _, s := range []BlogStatus{"", "archived", "PUBLISHED"} {
		if s.Valid() {
			t.Errorf("status %q should be invalid", s)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("category %q should be valid", c)
		}
	}
	for _, c := range []string{"", "technology", "Gardening"} {
		if ValidCategory(c) {
			t.Errorf("category %q should be invalid", c)
		}
	}
}

// TestGrowthRate verifies the views-per-hour computation, including the
// one-hour floor for freshly created posts.
func TestGrowthRate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		views   int64
		created time.Time
		want    float64
	}{
		{name: "100 views over 10 hours", views: 100, created: now.Add(-10 * time.Hour), want: 10},
		{name: "fresh post floored at one hour", views: 30, created: now.Add(-5 * time.Minute), want: 30},
		{name: "zero views", views: 0, created: now.Add(-24 * time.Hour), want: 0},
		{name: "rounds to two decimals", views: 1, created: now.Add(-3 * time.Hour), want: 0.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GrowthRate(tt.views, tt.created, now); got != tt.want {
				t.Errorf("GrowthRate(%d, %v ago) = %v, want %v", tt.views, now.Sub(tt.created), got, tt.want)
			}
		})
	}
}
