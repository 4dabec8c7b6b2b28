// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"questmeraki/internal/models"
)

// BlogStore handles all post-related database operations.
type BlogStore struct {
	db *sql.DB
}

// NewBlogStore creates a new BlogStore with the given database connection.
func NewBlogStore(db *sql.DB) *BlogStore {
	return &BlogStore{db: db}
}

// blogColumns lists the columns selected in blog queries. The aliased
// variant is used in author-joined queries.
const (
	blogColumns = `id, title, subtitle, body, category, image_url, image_key,
	thumb_key, thumb_url, author_id, status, views, created_at, updated_at`

	blogColumnsAliased = `b.id, b.title, b.subtitle, b.body, b.category, b.image_url, b.image_key,
	b.thumb_key, b.thumb_url, b.author_id, b.status, b.views, b.created_at, b.updated_at`
)

// scanBlog scans a blog row from the result set.
func scanBlog(scanner interface{ Scan(...any) error }) (*models.Blog, error) {
	var b models.Blog
	err := scanner.Scan(
		&b.ID, &b.Title, &b.Subtitle, &b.Body, &b.Category, &b.ImageURL, &b.ImageKey,
		&b.ThumbKey, &b.ThumbURL, &b.AuthorID, &b.Status, &b.Views, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// scanBlogWithAuthor scans a blog row joined with the author's identity.
func scanBlogWithAuthor(scanner interface{ Scan(...any) error }, withEmail bool) (*models.BlogWithAuthor, error) {
	var b models.BlogWithAuthor
	dest := []any{
		&b.ID, &b.Title, &b.Subtitle, &b.Body, &b.Category, &b.ImageURL, &b.ImageKey,
		&b.ThumbKey, &b.ThumbURL, &b.AuthorID, &b.Status, &b.Views, &b.CreatedAt, &b.UpdatedAt,
		&b.AuthorName,
	}
	if withEmail {
		dest = append(dest, &b.AuthorEmail)
	}
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new post and returns it with the generated ID. The
// caller decides the initial status via models.InitialStatus.
func (s *BlogStore) Create(b *models.Blog) (*models.Blog, error) {
	row := s.db.QueryRow(`
		INSERT INTO blogs (title, subtitle, body, category, image_url, image_key, thumb_key, thumb_url, author_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+blogColumns,
		b.Title, b.Subtitle, b.Body, b.Category, b.ImageURL, b.ImageKey, b.ThumbKey, b.ThumbURL, b.AuthorID, b.Status,
	)
	created, err := scanBlog(row)
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	return created, nil
}

// FindByID retrieves a post by its UUID regardless of status. Visibility
// rules are applied by the caller. Returns nil if not found.
func (s *BlogStore) FindByID(id uuid.UUID) (*models.Blog, error) {
	row := s.db.QueryRow(`SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id)
	b, err := scanBlog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog by id: %w", err)
	}
	return b, nil
}

// FindByIDWithAuthor retrieves a post joined with the author's display name.
func (s *BlogStore) FindByIDWithAuthor(id uuid.UUID) (*models.BlogWithAuthor, error) {
	row := s.db.QueryRow(`
		SELECT `+blogColumnsAliased+`, u.display_name
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE b.id = $1
	`, id)
	b, err := scanBlogWithAuthor(row, false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog with author: %w", err)
	}
	return b, nil
}

// ListPublished returns published posts paired with their author's display
// name, newest-first, capped at limit to keep response sizes bounded.
func (s *BlogStore) ListPublished(limit int) ([]models.BlogWithAuthor, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumnsAliased+`, u.display_name
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE b.status = 'published'
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list published blogs: %w", err)
	}
	return collectWithAuthor(rows, false)
}

// ListByAuthor returns all posts owned by the given account, any status,
// newest-first.
func (s *BlogStore) ListByAuthor(authorID uuid.UUID) ([]models.Blog, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumns+`
		FROM blogs
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list blogs by author: %w", err)
	}
	defer rows.Close()

	var items []models.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// ListPending returns posts awaiting review, author-joined, newest-first.
func (s *BlogStore) ListPending() ([]models.BlogWithAuthor, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumnsAliased+`, u.display_name
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE b.status = 'pending'
		ORDER BY b.created_at DESC, b.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending blogs: %w", err)
	}
	return collectWithAuthor(rows, false)
}

// ListPage returns one page of posts for the admin listing, optionally
// filtered by status ("" or "all" means no filter), along with the total
// match count. Pages are 1-based. The id tie-break keeps the ordering
// deterministic when several posts share a creation timestamp.
func (s *BlogStore) ListPage(status models.BlogStatus, page, limit int) ([]models.BlogWithAuthor, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	where := ""
	args := []any{limit, offset}
	if status != "" && status != "all" {
		where = "WHERE b.status = $3"
		args = append(args, status)
	}

	rows, err := s.db.Query(`
		SELECT `+blogColumnsAliased+`, u.display_name, u.email
		FROM blogs b JOIN users u ON u.id = b.author_id
		`+where+`
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blog page: %w", err)
	}
	items, err := collectWithAuthor(rows, true)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if status != "" && status != "all" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM blogs WHERE status = $1`, status).Scan(&total)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM blogs`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	return items, total, nil
}

// CountByStatus returns the number of posts in the given status.
func (s *BlogStore) CountByStatus(status models.BlogStatus) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM blogs WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("count blogs by status: %w", err)
	}
	return count, nil
}

// Update replaces a post's editable fields. Status is not touched here —
// moderation transitions go through UpdateStatus.
func (s *BlogStore) Update(b *models.Blog) error {
	_, err := s.db.Exec(`
		UPDATE blogs SET
			title = $1, subtitle = $2, body = $3, category = $4,
			image_url = $5, image_key = $6, thumb_key = $7, thumb_url = $8,
			updated_at = NOW()
		WHERE id = $9
	`, b.Title, b.Subtitle, b.Body, b.Category, b.ImageURL, b.ImageKey, b.ThumbKey, b.ThumbURL, b.ID)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// UpdateStatus sets a post's moderation status and returns the updated
// row, or nil if the post does not exist.
func (s *BlogStore) UpdateStatus(id uuid.UUID, status models.BlogStatus) (*models.Blog, error) {
	row := s.db.QueryRow(`
		UPDATE blogs SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+blogColumns, status, id)
	b, err := scanBlog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update blog status: %w", err)
	}
	return b, nil
}

// IncrementViews atomically bumps a post's view counter by one and
// returns the new count. The single UPDATE keeps concurrent increments
// from racing a read-modify-write. Returns (0, nil) with found=false if
// the post does not exist.
func (s *BlogStore) IncrementViews(id uuid.UUID) (int64, bool, error) {
	var views int64
	err := s.db.QueryRow(`
		UPDATE blogs SET views = views + 1 WHERE id = $1 RETURNING views
	`, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("increment views: %w", err)
	}
	return views, true, nil
}

// Views returns a post's current view count. Returns found=false if the
// post does not exist.
func (s *BlogStore) Views(id uuid.UUID) (int64, bool, error) {
	var views int64
	err := s.db.QueryRow(`SELECT views FROM blogs WHERE id = $1`, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get views: %w", err)
	}
	return views, true, nil
}

// Delete removes a post and returns the deleted row so the caller can
// release the stored image objects. Returns nil if the post did not exist.
func (s *BlogStore) Delete(id uuid.UUID) (*models.Blog, error) {
	row := s.db.QueryRow(`
		DELETE FROM blogs WHERE id = $1
		RETURNING `+blogColumns, id)
	b, err := scanBlog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete blog: %w", err)
	}
	return b, nil
}

// Trending returns published posts ordered by views descending, then
// creation time descending, capped at limit.
func (s *BlogStore) Trending(limit int) ([]models.BlogWithAuthor, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumnsAliased+`, u.display_name
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE b.status = 'published'
		ORDER BY b.views DESC, b.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list trending blogs: %w", err)
	}
	return collectWithAuthor(rows, false)
}

// Popular returns published posts ordered by views descending, capped at limit.
func (s *BlogStore) Popular(limit int) ([]models.BlogWithAuthor, error) {
	rows, err := s.db.Query(`
		SELECT `+blogColumnsAliased+`, u.display_name
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE b.status = 'published'
		ORDER BY b.views DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular blogs: %w", err)
	}
	return collectWithAuthor(rows, false)
}

// collectWithAuthor drains a result set of author-joined blog rows.
func collectWithAuthor(rows *sql.Rows, withEmail bool) ([]models.BlogWithAuthor, error) {
	defer rows.Close()

	var items []models.BlogWithAuthor
	for rows.Next() {
		b, err := scanBlogWithAuthor(rows, withEmail)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

