// store_test.go provides shared test infrastructure for store integration
// tests. Tests are skipped when PostgreSQL is unavailable.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"questmeraki/internal/database"
	"questmeraki/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "questmeraki")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "questmeraki")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway account and registers cleanup.
func testUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()

	s := NewUserStore(db)
	email := "test-" + uuid.NewString()[:8] + "@example.com"
	u, err := s.Create(email, "password123", "Test User", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM blogs WHERE author_id = $1", u.ID)
		db.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// testBlog creates a throwaway post owned by the given account.
func testBlog(t *testing.T, db *sql.DB, author *models.User, status models.BlogStatus) *models.Blog {
	t.Helper()

	s := NewBlogStore(db)
	b, err := s.Create(&models.Blog{
		Title:    "Test Post " + uuid.NewString()[:8],
		Body:     "<p>Body</p>",
		Category: "Technology",
		ImageURL: "https://img.example.com/x.jpg",
		ImageKey: "blog_images/test/" + uuid.NewString(),
		AuthorID: author.ID,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("create test blog: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM blogs WHERE id = $1", b.ID) })
	return b
}
