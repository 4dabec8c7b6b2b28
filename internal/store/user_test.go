package store

import (
	"errors"
	"testing"

	"questmeraki/internal/models"
)

func TestUserStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	u := testUser(t, db, models.RoleReader)

	if u.Role != models.RoleReader {
		t.Errorf("role: got %q, want %q", u.Role, models.RoleReader)
	}
	if u.PasswordHash == "password123" {
		t.Error("password stored in clear text")
	}

	found, err := s.FindByEmail(u.Email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found == nil || found.ID != u.ID {
		t.Fatalf("FindByEmail returned %v, want id %v", found, u.ID)
	}

	byID, err := s.FindByID(u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Email != u.Email {
		t.Fatalf("FindByID returned %v", byID)
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	u := testUser(t, db, models.RoleReader)

	_, err := s.Create(u.Email, "otherpassword", "Imposter", models.RoleReader)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create with duplicate email: got %v, want ErrDuplicateEmail", err)
	}
}

func TestUserStoreFindByEmailAndRole(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	reader := testUser(t, db, models.RoleReader)

	// A reader account must not resolve through the admin path.
	asAdmin, err := s.FindByEmailAndRole(reader.Email, models.RoleAdmin)
	if err != nil {
		t.Fatalf("FindByEmailAndRole: %v", err)
	}
	if asAdmin != nil {
		t.Error("reader account resolved with admin role")
	}

	asReader, err := s.FindByEmailAndRole(reader.Email, models.RoleReader)
	if err != nil {
		t.Fatalf("FindByEmailAndRole: %v", err)
	}
	if asReader == nil || asReader.ID != reader.ID {
		t.Error("reader account did not resolve with reader role")
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	u := testUser(t, db, models.RoleReader)

	if !s.CheckPassword(u, "password123") {
		t.Error("correct password rejected")
	}
	if s.CheckPassword(u, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	u := testUser(t, db, models.RoleAdmin)
	if u.TOTPEnabled {
		t.Fatal("new account should not have 2FA enabled")
	}

	if err := s.SetTOTPSecret(u.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	if err := s.EnableTOTP(u.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}

	found, err := s.FindByID(u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !found.TOTPEnabled {
		t.Error("TOTP not enabled after EnableTOTP")
	}
	if found.TOTPSecret == nil || *found.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Error("TOTP secret not persisted")
	}
}
