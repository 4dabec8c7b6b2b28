// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"questmeraki/internal/cache"
	"questmeraki/internal/messaging"
	"questmeraki/internal/models"
	"questmeraki/internal/store"
)

// Pagination defaults for the admin listing.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Admin groups the moderation and statistics handlers. All routes in
// this group sit behind the admin-only middleware.
type Admin struct {
	blogs    *store.BlogStore
	users    *store.UserStore
	listings *cache.ListingCache
	events   *messaging.Publisher
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(blogs *store.BlogStore, users *store.UserStore, listings *cache.ListingCache, events *messaging.Publisher) *Admin {
	return &Admin{
		blogs:    blogs,
		users:    users,
		listings: listings,
		events:   events,
	}
}

// Pending lists posts awaiting review, oldest submissions first served
// by created_at ordering.
func (a *Admin) Pending(w http.ResponseWriter, r *http.Request) {
	items, err := a.blogs.ListPending()
	if err != nil {
		writeServerError(w, "pending listing failed", err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// ListAll returns a paginated page of posts with an optional status
// filter. The response envelope carries the pagination arithmetic so
// clients never compute page counts themselves.
func (a *Admin) ListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := models.BlogStatus(q.Get("status"))
	if status != "" && status != "all" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	limit := defaultPageSize
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := a.blogs.ListPage(status, page, limit)
	if err != nil {
		writeServerError(w, "admin listing failed", err)
		return
	}

	pages := (total + limit - 1) / limit

	writeJSON(w, http.StatusOK, map[string]any{
		"blogs": items,
		"pagination": map[string]int{
			"current": page,
			"pages":   pages,
			"total":   total,
		},
	})
}

// UpdateStatus applies a moderation decision. Any status-to-status edge
// is permitted; the admin surface is trusted to reverse earlier
// decisions (un-publish, re-approve a rejection).
func (a *Admin) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	var req struct {
		Status models.BlogStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	updated, err := a.blogs.UpdateStatus(id, req.Status)
	if err != nil {
		writeServerError(w, "status update failed", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}

	a.events.BlogStatusChanged(updated)
	a.listings.InvalidateAll(r.Context())

	writeJSON(w, http.StatusOK, updated)
}

// Stats returns post counts by status plus account counts.
func (a *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	statuses := []models.BlogStatus{
		models.StatusDraft, models.StatusPending,
		models.StatusPublished, models.StatusRejected,
	}
	blogCounts := make(map[string]int, len(statuses))
	total := 0
	for _, s := range statuses {
		n, err := a.blogs.CountByStatus(s)
		if err != nil {
			writeServerError(w, "blog count failed", err)
			return
		}
		blogCounts[string(s)] = n
		total += n
	}

	userTotal, err := a.users.Count()
	if err != nil {
		writeServerError(w, "user count failed", err)
		return
	}
	adminTotal, err := a.users.CountByRole(models.RoleAdmin)
	if err != nil {
		writeServerError(w, "admin count failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"blogs": map[string]any{
			"total":     total,
			"by_status": blogCounts,
		},
		"users": map[string]int{
			"total":   userTotal,
			"admins":  adminTotal,
			"readers": userTotal - adminTotal,
		},
	})
}
