package store

import (
	"testing"

	"questmeraki/internal/models"
)

func TestBlogStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	b := testBlog(t, db, author, models.StatusPending)

	if b.Views != 0 {
		t.Errorf("views: got %d, want 0", b.Views)
	}

	found, err := s.FindByID(b.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatal("expected blog, got nil")
	}
	if found.AuthorID != author.ID {
		t.Errorf("author: got %v, want %v", found.AuthorID, author.ID)
	}
	if found.Status != models.StatusPending {
		t.Errorf("status: got %q, want pending", found.Status)
	}
}

func TestBlogStoreThumbURLRoundTrip(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	thumbKey := "blog_images/test/" + t.Name() + "_thumb.jpg"
	thumbURL := "https://img.example.com/" + thumbKey

	created, err := s.Create(&models.Blog{
		Title:    "Thumb Round Trip",
		Body:     "<p>Body</p>",
		Category: "Technology",
		ImageURL: "https://img.example.com/x.jpg",
		ImageKey: "blog_images/test/x.jpg",
		ThumbKey: &thumbKey,
		ThumbURL: thumbURL,
		AuthorID: author.ID,
		Status:   models.StatusPublished,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM blogs WHERE id = $1", created.ID) })

	if created.ThumbURL != thumbURL {
		t.Errorf("created thumb_url: got %q, want %q", created.ThumbURL, thumbURL)
	}

	found, err := s.FindByID(created.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID: %v %v", found, err)
	}
	if found.ThumbURL != thumbURL {
		t.Errorf("fetched thumb_url: got %q, want %q", found.ThumbURL, thumbURL)
	}
	if found.ThumbKey == nil || *found.ThumbKey != thumbKey {
		t.Errorf("fetched thumb_key: got %v, want %q", found.ThumbKey, thumbKey)
	}

	withAuthor, err := s.FindByIDWithAuthor(created.ID)
	if err != nil || withAuthor == nil {
		t.Fatalf("FindByIDWithAuthor: %v %v", withAuthor, err)
	}
	if withAuthor.ThumbURL != thumbURL {
		t.Errorf("author-joined thumb_url: got %q, want %q", withAuthor.ThumbURL, thumbURL)
	}
}

func TestBlogStoreListPublishedExcludesOthers(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	published := testBlog(t, db, author, models.StatusPublished)
	pending := testBlog(t, db, author, models.StatusPending)
	rejected := testBlog(t, db, author, models.StatusRejected)

	items, err := s.ListPublished(100)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}

	seen := map[string]bool{}
	for _, it := range items {
		seen[it.ID.String()] = true
		if it.Status != models.StatusPublished {
			t.Errorf("non-published blog %v in published listing", it.ID)
		}
		if it.AuthorName == "" {
			t.Error("author name not joined")
		}
	}
	if !seen[published.ID.String()] {
		t.Error("published blog missing from listing")
	}
	if seen[pending.ID.String()] || seen[rejected.ID.String()] {
		t.Error("unpublished blog leaked into published listing")
	}
}

func TestBlogStoreIncrementViewsMonotonic(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	b := testBlog(t, db, author, models.StatusPublished)

	// N sequential increments yield counts 1..N.
	for i := int64(1); i <= 5; i++ {
		views, found, err := s.IncrementViews(b.ID)
		if err != nil {
			t.Fatalf("IncrementViews: %v", err)
		}
		if !found {
			t.Fatal("blog not found")
		}
		if views != i {
			t.Errorf("increment %d: got %d", i, views)
		}
	}

	views, found, err := s.Views(b.ID)
	if err != nil || !found {
		t.Fatalf("Views: %v found=%v", err, found)
	}
	if views != 5 {
		t.Errorf("final views: got %d, want 5", views)
	}
}

func TestBlogStoreIncrementViewsMissing(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	b := testBlog(t, db, author, models.StatusPublished)
	if _, err := s.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, found, err := s.IncrementViews(b.ID)
	if err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	if found {
		t.Error("increment on deleted blog reported found")
	}
}

func TestBlogStoreUpdateStatus(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	b := testBlog(t, db, author, models.StatusPending)

	updated, err := s.UpdateStatus(b.ID, models.StatusPublished)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated == nil || updated.Status != models.StatusPublished {
		t.Fatalf("status after update: %v", updated)
	}

	// Reverse transition is also a single status write.
	updated, err = s.UpdateStatus(b.ID, models.StatusRejected)
	if err != nil || updated.Status != models.StatusRejected {
		t.Fatalf("reject after publish: %v %v", updated, err)
	}
}

func TestBlogStoreDeleteReturnsRow(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	b := testBlog(t, db, author, models.StatusPublished)

	deleted, err := s.Delete(b.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted == nil || deleted.ImageKey != b.ImageKey {
		t.Fatalf("Delete should return the row for image cleanup, got %v", deleted)
	}

	found, err := s.FindByID(b.ID)
	if err != nil {
		t.Fatalf("FindByID after delete: %v", err)
	}
	if found != nil {
		t.Error("blog still present after delete")
	}

	// Second delete finds nothing.
	again, err := s.Delete(b.ID)
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if again != nil {
		t.Error("second delete returned a row")
	}
}

func TestBlogStorePaginationConsistency(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	for i := 0; i < 25; i++ {
		testBlog(t, db, author, models.StatusPublished)
	}

	// Count published via paging and verify it matches the total.
	_, total, err := s.ListPage(models.StatusPublished, 1, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}

	var collected int
	pages := (total + 9) / 10
	seen := map[string]bool{}
	for page := 1; page <= pages; page++ {
		items, pageTotal, err := s.ListPage(models.StatusPublished, page, 10)
		if err != nil {
			t.Fatalf("ListPage page %d: %v", page, err)
		}
		if pageTotal != total {
			t.Errorf("total changed between pages: %d vs %d", pageTotal, total)
		}
		for _, it := range items {
			if seen[it.ID.String()] {
				t.Errorf("blog %v appeared on two pages", it.ID)
			}
			seen[it.ID.String()] = true
		}
		collected += len(items)
	}

	if collected != total {
		t.Errorf("sum of page sizes = %d, want total %d", collected, total)
	}
}

func TestBlogStoreTrendingAndPopularPublishedOnly(t *testing.T) {
	db := testDB(t)
	s := NewBlogStore(db)

	author := testUser(t, db, models.RoleReader)
	pub := testBlog(t, db, author, models.StatusPublished)
	pending := testBlog(t, db, author, models.StatusPending)

	// Give the pending post the highest view count; it must still not rank.
	db.Exec("UPDATE blogs SET views = 1000 WHERE id = $1", pending.ID)
	db.Exec("UPDATE blogs SET views = 10 WHERE id = $1", pub.ID)

	for name, list := range map[string]func(int) ([]models.BlogWithAuthor, error){
		"Trending": s.Trending,
		"Popular":  s.Popular,
	} {
		items, err := list(1000)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		prev := int64(-1)
		for _, it := range items {
			if it.Status != models.StatusPublished {
				t.Errorf("%s included non-published blog %v", name, it.ID)
			}
			if prev >= 0 && it.Views > prev {
				t.Errorf("%s not ordered by views descending", name)
			}
			prev = it.Views
		}
	}
}
