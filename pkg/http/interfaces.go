//go:generate mockgen -destination=mocks/http.go . Client
package http

import (
	"context"
	"net/http"
	"net/url"
)

// Client performs the GET requests the downloader needs.
type Client interface {
	// Get issues a GET for u. A non-nil response is returned for every HTTP
	// status; the caller owns and must close its body.
	Get(ctx context.Context, u *url.URL) (*http.Response, error)
}
