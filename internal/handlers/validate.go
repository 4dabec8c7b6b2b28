package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"questmeraki/internal/models"
)

// Validation limits for post fields.
const (
	maxTitleLen    = 300
	maxSubtitleLen = 250
	maxBodyLen     = 100_000
)

// validateBlogFields checks post form inputs and returns the first error
// found, or "" when all fields pass.
func validateBlogFields(title, subtitle, body, category string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(subtitle) > maxSubtitleLen {
		return "Subtitle is too long (max 250 characters)."
	}
	if strings.TrimSpace(body) == "" {
		return "Content is required."
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Content is too long (max 100,000 characters)."
	}
	if !models.ValidCategory(category) {
		return fmt.Sprintf("Category must be one of: %s.", strings.Join(models.Categories, ", "))
	}
	return ""
}

// validateCredentials checks registration inputs.
func validateCredentials(email, password, name string) string {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return "A valid email address is required."
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters."
	}
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	return ""
}
