// Package media replaces deferred image placeholders in a generated flow
// with resolved photo records from an external search provider.
package media

import (
	"context"
)

// Photo is one resolved search result.
type Photo struct {
	URL         string
	Alt         string
	Attribution string
	TrackingRef string
}

// Provider defines the photo-search interface. Search returns (nil, nil)
// when no result matches. TrackDownload is best-effort usage tracking;
// callers swallow its errors.
type Provider interface {
	Search(ctx context.Context, query, orientation string) (*Photo, error)
	TrackDownload(ctx context.Context, trackingRef string) error
}
