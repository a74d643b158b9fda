package errors

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the ISO calendar date layout accepted on the command line and in URLs.
const DateLayout = "2006-01-02"

// ValidateDate parses an ISO date (YYYY-MM-DD) and returns it at midnight in loc.
// A nil loc means UTC.
func ValidateDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, New(ErrCodeInvalidDate, "date cannot be empty")
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, Wrap(ErrCodeInvalidDate, err, "invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// ValidateClubID validates a club identifier. Club ids are numeric strings.
func ValidateClubID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidConfig, "club id cannot be empty")
	}
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return New(ErrCodeInvalidConfig, "club id must be numeric: %q", id)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateRecipients checks that every address parses as an RFC 5322 address.
func ValidateRecipients(addrs []string) error {
	if len(addrs) == 0 {
		return New(ErrCodeInvalidConfig, "at least one recipient is required")
	}
	for _, a := range addrs {
		if _, err := mail.ParseAddress(a); err != nil {
			return Wrap(ErrCodeInvalidConfig, err, "invalid recipient %q", a)
		}
	}
	return nil
}

// ValidateFileName validates an artifact filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidPath, "file name too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "file name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "file name cannot be a hidden file")
	}
	return nil
}
