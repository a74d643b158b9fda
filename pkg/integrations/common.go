package integrations

import (
	"errors"
	"net/http"
	"time"

	"github.com/matzehuels/clubreport/pkg/buildinfo"
)

const httpTimeout = 15 * time.Second

// maxBodyBytes bounds downloads such as the banner image.
const maxBodyBytes = 16 << 20

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// NewHTTPClient returns an HTTP client with the standard request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// UserAgent identifies the binary to remote APIs.
func UserAgent() string {
	return "clubreport/" + buildinfo.Version
}
