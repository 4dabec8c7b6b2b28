// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"questmeraki/internal/authz"
	"questmeraki/internal/cache"
	"questmeraki/internal/markdown"
	"questmeraki/internal/messaging"
	"questmeraki/internal/middleware"
	"questmeraki/internal/models"
	"questmeraki/internal/slug"
	"questmeraki/internal/storage"
	"questmeraki/internal/store"
)

// Listing defaults and bounds.
const (
	publishedListingCap = 100
	defaultTrendingSize = 10
	defaultPopularSize  = 5
	maxListingSize      = 50
)

// Blogs groups the post CRUD, listing, and view-tracking handlers.
type Blogs struct {
	blogs    *store.BlogStore
	storage  *storage.Client
	listings *cache.ListingCache
	events   *messaging.Publisher
}

// NewBlogs creates a new Blogs handler group. storage and events may be
// nil when object storage or NATS are not configured.
func NewBlogs(blogs *store.BlogStore, storageClient *storage.Client, listings *cache.ListingCache, events *messaging.Publisher) *Blogs {
	return &Blogs{
		blogs:    blogs,
		storage:  storageClient,
		listings: listings,
		events:   events,
	}
}

// uploadedImage holds a validated multipart image ready for storage.
type uploadedImage struct {
	data        []byte
	contentType string
	ext         string
}

// Create handles post submission: validates the multipart form, stores
// the image, and creates the post with the status its author's role
// dictates. The client never chooses the initial status.
func (h *Blogs) Create(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromCtx(r.Context())
	if !authz.Allowed(authz.ActionCreateBlog, account.Role, true) {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	if !parseUploadForm(w, r) {
		return
	}

	title := r.FormValue("title")
	subtitle := r.FormValue("subtitle")
	body := r.FormValue("content")
	category := r.FormValue("category")
	if msg := validateBlogFields(title, subtitle, body, category); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if r.FormValue("content_format") == "markdown" {
		html, err := markdown.ToHTML(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid markdown content")
			return
		}
		body = html
	}

	img, errStatus, errMsg := readImageForm(r)
	if errMsg != "" {
		writeError(w, errStatus, errMsg)
		return
	}

	ctx := r.Context()
	imageKey, thumbKey, err := h.storeImage(ctx, img)
	if err != nil {
		writeServerError(w, "image upload failed", err)
		return
	}

	blog := &models.Blog{
		Title:    strings.TrimSpace(title),
		Subtitle: subtitle,
		Body:     body,
		Category: category,
		ImageURL: h.storage.FileURL(imageKey),
		ImageKey: imageKey,
		ThumbKey: thumbKey,
		AuthorID: account.ID,
		Status:   models.InitialStatus(account.Role),
	}
	if thumbKey != nil {
		blog.ThumbURL = h.storage.FileURL(*thumbKey)
	}

	created, err := h.blogs.Create(blog)
	if err != nil {
		// The post row failed; release the objects we just stored.
		h.releaseImage(ctx, imageKey, thumbKey)
		writeServerError(w, "blog create failed", err)
		return
	}

	h.events.BlogSubmitted(created)
	h.listings.InvalidateAll(ctx)

	writeJSON(w, http.StatusCreated, created)
}

// ListPublished returns the public feed: published posts with author
// names, newest first, bounded. Served from the listing cache when warm.
func (h *Blogs) ListPublished(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.PublishedKey()
	if payload, ok := h.listings.Get(ctx, key); ok {
		writeRawJSON(w, payload)
		return
	}

	items, err := h.blogs.ListPublished(publishedListingCap)
	if err != nil {
		writeServerError(w, "published listing failed", err)
		return
	}

	h.respondAndCache(w, ctx, key, items)
}

// Get returns a single post. Unpublished posts are only visible to their
// owner and to admins; everyone else receives 404 so unpublished posts
// cannot be probed for.
func (h *Blogs) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := h.blogs.FindByIDWithAuthor(id)
	if err != nil {
		writeServerError(w, "blog lookup failed", err)
		return
	}

	caller := middleware.AccountFromCtx(r.Context())
	if blog == nil || !blog.VisibleTo(caller) {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}

	writeJSON(w, http.StatusOK, blog)
}

// MyBlogs returns every post owned by the caller, regardless of status.
func (h *Blogs) MyBlogs(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromCtx(r.Context())
	if !authz.Allowed(authz.ActionListOwnBlogs, account.Role, true) {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	items, err := h.blogs.ListByAuthor(account.ID)
	if err != nil {
		writeServerError(w, "own listing failed", err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Update modifies a post's fields. Only the owner or an admin may update;
// when the image is replaced the new object is stored before the old one
// is released, so the post never points at a missing object.
func (h *Blogs) Update(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := h.blogs.FindByID(id)
	if err != nil {
		writeServerError(w, "blog lookup failed", err)
		return
	}
	if blog == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	if !authz.Allowed(authz.ActionUpdateBlog, account.Role, blog.AuthorID == account.ID) {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	if !parseUploadForm(w, r) {
		return
	}

	title := formValueOr(r, "title", blog.Title)
	subtitle := formValueOr(r, "subtitle", blog.Subtitle)
	body := formValueOr(r, "content", blog.Body)
	category := formValueOr(r, "category", blog.Category)
	if msg := validateBlogFields(title, subtitle, body, category); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if r.FormValue("content_format") == "markdown" {
		html, err := markdown.ToHTML(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid markdown content")
			return
		}
		body = html
	}

	blog.Title = strings.TrimSpace(title)
	blog.Subtitle = subtitle
	blog.Body = body
	blog.Category = category

	ctx := r.Context()
	var oldKey string
	var oldThumb *string
	if f, _, ferr := r.FormFile("image"); ferr == nil {
		f.Close()
		if h.storage == nil {
			writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
			return
		}
		img, errStatus, errMsg := readImageForm(r)
		if errMsg != "" {
			writeError(w, errStatus, errMsg)
			return
		}
		newKey, newThumb, err := h.storeImage(ctx, img)
		if err != nil {
			writeServerError(w, "image upload failed", err)
			return
		}
		oldKey, oldThumb = blog.ImageKey, blog.ThumbKey
		blog.ImageKey = newKey
		blog.ImageURL = h.storage.FileURL(newKey)
		blog.ThumbKey = newThumb
		blog.ThumbURL = ""
		if newThumb != nil {
			blog.ThumbURL = h.storage.FileURL(*newThumb)
		}
	}

	if err := h.blogs.Update(blog); err != nil {
		if oldKey != "" {
			// Keep the old objects; the row still references them.
			h.releaseImage(ctx, blog.ImageKey, blog.ThumbKey)
		}
		writeServerError(w, "blog update failed", err)
		return
	}

	if oldKey != "" {
		h.releaseImage(ctx, oldKey, oldThumb)
	}
	h.listings.InvalidateAll(ctx)

	writeJSON(w, http.StatusOK, blog)
}

// Delete removes a post. The database row goes first; releasing the
// stored image afterwards is best-effort, so a storage outage can orphan
// an object but never resurrect a deleted post.
func (h *Blogs) Delete(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := h.blogs.FindByID(id)
	if err != nil {
		writeServerError(w, "blog lookup failed", err)
		return
	}
	if blog == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	if !authz.Allowed(authz.ActionDeleteBlog, account.Role, blog.AuthorID == account.ID) {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	deleted, err := h.blogs.Delete(id)
	if err != nil {
		writeServerError(w, "blog delete failed", err)
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}

	ctx := r.Context()
	h.releaseImage(ctx, deleted.ImageKey, deleted.ThumbKey)
	h.events.BlogDeleted(deleted)
	h.listings.InvalidateAll(ctx)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TrackView atomically increments the post's view counter and returns
// the new count.
func (h *Blogs) TrackView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	views, found, err := h.blogs.IncrementViews(id)
	if err != nil {
		writeServerError(w, "view increment failed", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"views": views})
}

// ViewCount returns the post's current view count.
func (h *Blogs) ViewCount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	views, found, err := h.blogs.Views(id)
	if err != nil {
		writeServerError(w, "view lookup failed", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"views": views})
}

// Trending lists the most viewed published posts with a growth-rate
// figure: views per hour since the post was created.
func (h *Blogs) Trending(w http.ResponseWriter, r *http.Request) {
	limit := listingLimit(r, defaultTrendingSize)

	ctx := r.Context()
	key := cache.TrendingKey(limit)
	if payload, ok := h.listings.Get(ctx, key); ok {
		writeRawJSON(w, payload)
		return
	}

	items, err := h.blogs.Trending(limit)
	if err != nil {
		writeServerError(w, "trending listing failed", err)
		return
	}

	now := time.Now()
	trending := make([]models.TrendingBlog, 0, len(items))
	for _, item := range items {
		trending = append(trending, models.TrendingBlog{
			BlogWithAuthor: item,
			GrowthRate:     models.GrowthRate(item.Views, item.CreatedAt, now),
		})
	}

	h.respondAndCache(w, ctx, key, trending)
}

// Popular lists the most viewed published posts.
func (h *Blogs) Popular(w http.ResponseWriter, r *http.Request) {
	limit := listingLimit(r, defaultPopularSize)

	ctx := r.Context()
	key := cache.PopularKey(limit)
	if payload, ok := h.listings.Get(ctx, key); ok {
		writeRawJSON(w, payload)
		return
	}

	items, err := h.blogs.Popular(limit)
	if err != nil {
		writeServerError(w, "popular listing failed", err)
		return
	}

	h.respondAndCache(w, ctx, key, items)
}

// Download exports a post as a plain-text document. Visibility follows
// the same rule as single fetch.
func (h *Blogs) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := h.blogs.FindByIDWithAuthor(id)
	if err != nil {
		writeServerError(w, "blog lookup failed", err)
		return
	}

	caller := middleware.AccountFromCtx(r.Context())
	if blog == nil || !blog.VisibleTo(caller) {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}

	filename := slug.Generate(blog.Title)
	if filename == "" {
		filename = blog.ID.String()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".txt"))
	fmt.Fprintf(w, "%s\n\n%s\n\nCategory: %s\nAuthor: %s\n\n%s\n",
		blog.Title, blog.Subtitle, blog.Category, blog.AuthorName, blog.Body)
}

// parseUploadForm bounds the request body and parses the multipart form,
// writing the error response on failure. A non-multipart body is the
// client's mistake, not an oversized request.
func parseUploadForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+maxJSONBody)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "multipart form data required")
			return false
		}
		writeError(w, http.StatusRequestEntityTooLarge, "request too large (max image size is 10 MB)")
		return false
	}
	return true
}

// readImageForm extracts and validates the "image" multipart part.
// Returns a non-empty message (and status) on validation failure.
func readImageForm(r *http.Request) (*uploadedImage, int, string) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, http.StatusBadRequest, "An image file is required."
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, http.StatusRequestEntityTooLarge, "Image too large. Maximum size is 10 MB."
	}

	// Detect content type by sniffing the first 512 bytes.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		return nil, http.StatusInternalServerError, "Failed to read image."
	}
	contentType := http.DetectContentType(sniffBuf[:n])
	if !allowedImageTypes[contentType] {
		return nil, http.StatusBadRequest, fmt.Sprintf("Image type %q is not allowed.", contentType)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, http.StatusInternalServerError, "Failed to process image."
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to read image."
	}

	return &uploadedImage{
		data:        data,
		contentType: contentType,
		ext:         extensionFromType(contentType),
	}, 0, ""
}

// storeImage uploads the image and, for thumbable types, a thumbnail.
// The thumbnail is best-effort; failure only costs the thumb.
func (h *Blogs) storeImage(ctx context.Context, img *uploadedImage) (string, *string, error) {
	now := time.Now()
	fileID := uuid.New().String()
	key := fmt.Sprintf("blog_images/%d/%02d/%s%s", now.Year(), now.Month(), fileID, img.ext)

	if err := h.storage.Upload(ctx, key, img.contentType, bytes.NewReader(img.data), int64(len(img.data))); err != nil {
		return "", nil, err
	}

	var thumbKey *string
	if thumbableTypes[img.contentType] {
		thumbData, err := generateThumbnail(bytes.NewReader(img.data), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		} else if thumbData != nil {
			tk := fmt.Sprintf("blog_images/%d/%02d/%s_thumb.jpg", now.Year(), now.Month(), fileID)
			if err := h.storage.Upload(ctx, tk, "image/jpeg", bytes.NewReader(thumbData), int64(len(thumbData))); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", tk)
			} else {
				thumbKey = &tk
			}
		}
	}

	return key, thumbKey, nil
}

// releaseImage deletes the stored image and thumbnail, logging failures.
func (h *Blogs) releaseImage(ctx context.Context, imageKey string, thumbKey *string) {
	if h.storage == nil || imageKey == "" {
		return
	}
	if err := h.storage.Delete(ctx, imageKey); err != nil {
		slog.Warn("image release failed", "error", err, "key", imageKey)
	}
	if thumbKey != nil {
		if err := h.storage.Delete(ctx, *thumbKey); err != nil {
			slog.Warn("thumbnail release failed", "error", err, "key", *thumbKey)
		}
	}
}

// respondAndCache serializes v once, writes it, and stores the payload
// in the listing cache.
func (h *Blogs) respondAndCache(w http.ResponseWriter, ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		writeServerError(w, "listing encode failed", err)
		return
	}
	h.listings.Set(ctx, key, payload)
	writeRawJSON(w, payload)
}

// writeRawJSON writes an already serialized JSON payload.
func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// formValueOr returns the form value, or fallback when the field is absent.
func formValueOr(r *http.Request, field, fallback string) string {
	if vals, ok := r.MultipartForm.Value[field]; ok && len(vals) > 0 {
		return vals[0]
	}
	return fallback
}

// listingLimit parses ?limit= with a default and an upper bound.
func listingLimit(r *http.Request, fallback int) int {
	limit := fallback
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListingSize {
		limit = maxListingSize
	}
	return limit
}
