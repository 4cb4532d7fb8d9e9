package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const unsplashBaseURL = "https://api.unsplash.com"

// UnsplashProvider implements Provider against the Unsplash search API.
type UnsplashProvider struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
}

// NewUnsplashProvider creates an Unsplash-backed photo provider.
func NewUnsplashProvider(accessKey string) *UnsplashProvider {
	return &UnsplashProvider{
		accessKey: accessKey,
		baseURL:   unsplashBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewUnsplashProviderWithBaseURL is used by tests to point at a stub server.
func NewUnsplashProviderWithBaseURL(accessKey, baseURL string) *UnsplashProvider {
	p := NewUnsplashProvider(accessKey)
	p.baseURL = baseURL
	return p
}

type unsplashSearchResponse struct {
	Results []struct {
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Links struct {
			DownloadLocation string `json:"download_location"`
		} `json:"links"`
	} `json:"results"`
}

// Search issues a single-result search and returns the first hit, or
// (nil, nil) when nothing matches.
func (p *UnsplashProvider) Search(ctx context.Context, query, orientation string) (*Photo, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	if orientation != "" {
		q.Set("orientation", orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo search: unexpected status %d", resp.StatusCode)
	}

	var body unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, nil
	}

	r := body.Results[0]
	alt := r.AltDescription
	if alt == "" {
		alt = query
	}
	return &Photo{
		URL:         r.URLs.Regular,
		Alt:         alt,
		Attribution: r.User.Name,
		TrackingRef: r.Links.DownloadLocation,
	}, nil
}

// TrackDownload reports photo usage as the provider's terms require.
func (p *UnsplashProvider) TrackDownload(ctx context.Context, trackingRef string) error {
	if trackingRef == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackingRef, nil)
	if err != nil {
		return fmt.Errorf("build tracking request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("track download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("track download: unexpected status %d", resp.StatusCode)
	}
	return nil
}
