// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz holds the single authorization policy consulted by every
// protected operation. Keeping the decision table in one place avoids the
// scattered per-handler role checks that tend to drift apart over time.
package authz

import "questmeraki/internal/models"

// Action identifies an operation subject to the authorization policy.
type Action string

const (
	// ActionCreateBlog covers submitting a new post.
	ActionCreateBlog Action = "blog:create"
	// ActionListOwnBlogs covers listing the caller's own posts.
	ActionListOwnBlogs Action = "blog:list_own"
	// ActionUpdateBlog covers replacing a post's title/body/category/image.
	ActionUpdateBlog Action = "blog:update"
	// ActionDeleteBlog covers removing a post and releasing its image.
	ActionDeleteBlog Action = "blog:delete"
	// ActionChangeStatus covers moderation transitions on a post.
	ActionChangeStatus Action = "blog:change_status"
	// ActionListPending covers the moderation review queue.
	ActionListPending Action = "blog:list_pending"
	// ActionListAll covers the status-filtered paginated admin listing.
	ActionListAll Action = "blog:list_all"
	// ActionViewStats covers aggregate post/account statistics.
	ActionViewStats Action = "stats:view"
)

// Allowed decides whether an account with the given role may perform the
// action, taking post ownership into account. It assumes the caller is
// already authenticated; unauthenticated access is rejected earlier with
// a distinct authentication error.
//
// The moderation workflow trusts the admin role entirely: an admin may
// move a post between any two statuses with no transition-legality check.
// That is a deliberate simplification carried over from the product's
// design, not an oversight.
func Allowed(action Action, role models.Role, owner bool) bool {
	if role == models.RoleAdmin {
		return true
	}

	switch action {
	case ActionCreateBlog, ActionListOwnBlogs:
		return true
	case ActionUpdateBlog, ActionDeleteBlog:
		return owner
	case ActionChangeStatus, ActionListPending, ActionListAll, ActionViewStats:
		return false
	}
	return false
}
