package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"questmeraki/internal/middleware"
	"questmeraki/internal/models"
	"questmeraki/internal/storage"
)

func TestBlogsCreateRejectsNonMultipartBody(t *testing.T) {
	client, err := storage.New("https://s3.example.com", "us-east-1", "key", "secret", "blog-images", "")
	if err != nil {
		t.Fatal(err)
	}
	h := NewBlogs(nil, client, nil, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader(`{"title":"hello"}`))
	r.Header.Set("Content-Type", "application/json")
	account := &models.User{ID: uuid.New(), Role: models.RoleReader}
	r = r.WithContext(context.WithValue(r.Context(), middleware.AccountKey, account))

	rec := httptest.NewRecorder()
	h.Create(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "multipart") {
		t.Errorf("body = %q, want a multipart form error", rec.Body.String())
	}
}
