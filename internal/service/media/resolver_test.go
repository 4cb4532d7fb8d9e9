package media

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/observability"
)

// fakePhotoProvider returns canned photos by query.
type fakePhotoProvider struct {
	mu      sync.Mutex
	photos  map[string]*Photo
	err     error
	tracked []string
}

func (f *fakePhotoProvider) Search(ctx context.Context, query, orientation string) (*Photo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.photos[query], nil
}

func (f *fakePhotoProvider) TrackDownload(ctx context.Context, trackingRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, trackingRef)
	return nil
}

func specWith(nodes ...flow.SpecNode) *flow.FlowSpec {
	return &flow.FlowSpec{Title: "t", Theme: flow.ThemeSunset, Nodes: nodes}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Should resolve a deferred media image", func(t *testing.T) {
		provider := &fakePhotoProvider{photos: map[string]*Photo{
			"birthday cake": {URL: "https://img.example.com/cake.jpg", Alt: "a cake", Attribution: "Photo by A"},
		}}
		resolver := NewResolver(provider, nil, nil)

		spec := specWith(flow.SpecNode{
			Type:    flow.NodeTypeMedia,
			Content: json.RawMessage(`{"image":{"url":"search:birthday cake","alt":"cake"}}`),
		})
		resolver.Resolve(ctx, spec)

		var content flow.MediaContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &content))
		assert.Equal(t, "https://img.example.com/cake.jpg", content.Image.URL)
		assert.Equal(t, "Photo by A", content.Image.Attribution)
		assert.False(t, content.Image.Deferred())
	})

	t.Run("Should keep the placeholder when a media search finds nothing", func(t *testing.T) {
		provider := &fakePhotoProvider{photos: map[string]*Photo{}}
		resolver := NewResolver(provider, nil, nil)

		spec := specWith(flow.SpecNode{
			Type:    flow.NodeTypeMedia,
			Content: json.RawMessage(`{"image":{"url":"search:nothing here","alt":"x"}}`),
		})
		resolver.Resolve(ctx, spec)

		var content flow.MediaContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &content))
		assert.True(t, content.Image.Deferred())
	})

	t.Run("Should drop an optional background that cannot be resolved", func(t *testing.T) {
		provider := &fakePhotoProvider{err: errors.New("rate limited")}
		resolver := NewResolver(provider, nil, nil)

		spec := specWith(flow.SpecNode{
			Type:    flow.NodeTypeHero,
			Content: json.RawMessage(`{"headline":"Hi","backgroundImage":{"url":"search:sunset","alt":"sunset"}}`),
		})
		resolver.Resolve(ctx, spec)

		var content flow.HeroContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &content))
		assert.Equal(t, "Hi", content.Headline, "non-image fields survive resolution")
		assert.Nil(t, content.BackgroundImage)
	})

	t.Run("Should resolve a reveal background", func(t *testing.T) {
		provider := &fakePhotoProvider{photos: map[string]*Photo{
			"confetti": {URL: "https://img.example.com/confetti.jpg", Alt: "confetti"},
		}}
		resolver := NewResolver(provider, nil, nil)

		spec := specWith(flow.SpecNode{
			Type:    flow.NodeTypeReveal,
			Content: json.RawMessage(`{"headline":"Surprise","backgroundImage":{"url":"search:confetti","alt":"confetti"}}`),
		})
		resolver.Resolve(ctx, spec)

		var content flow.RevealContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &content))
		require.NotNil(t, content.BackgroundImage)
		assert.Equal(t, "https://img.example.com/confetti.jpg", content.BackgroundImage.URL)
	})

	t.Run("Should leave already resolved images untouched", func(t *testing.T) {
		provider := &fakePhotoProvider{photos: map[string]*Photo{}}
		resolver := NewResolver(provider, nil, nil)

		content := `{"image":{"url":"https://img.example.com/mine.jpg","alt":"mine"}}`
		spec := specWith(flow.SpecNode{Type: flow.NodeTypeMedia, Content: json.RawMessage(content)})
		resolver.Resolve(ctx, spec)

		var got flow.MediaContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &got))
		assert.Equal(t, "https://img.example.com/mine.jpg", got.Image.URL)
	})

	t.Run("Should skip nodes without image fields", func(t *testing.T) {
		provider := &fakePhotoProvider{photos: map[string]*Photo{}}
		resolver := NewResolver(provider, nil, nil)

		content := json.RawMessage(`{"question":"q","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}`)
		spec := specWith(flow.SpecNode{Type: flow.NodeTypeChoice, Content: content})
		resolver.Resolve(ctx, spec)

		assert.JSONEq(t, string(content), string(spec.Nodes[0].Content))
	})

	t.Run("Should pass through untouched when no provider is configured", func(t *testing.T) {
		resolver := NewResolver(nil, nil, nil)

		content := `{"image":{"url":"search:anything","alt":"x"}}`
		spec := specWith(flow.SpecNode{Type: flow.NodeTypeMedia, Content: json.RawMessage(content)})
		resolver.Resolve(ctx, spec)

		var got flow.MediaContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &got))
		assert.True(t, got.Image.Deferred())
	})

	t.Run("Should resolve every image-bearing node in one pass", func(t *testing.T) {
		provider := &fakePhotoProvider{photos: map[string]*Photo{
			"a": {URL: "https://img.example.com/a.jpg"},
			"b": {URL: "https://img.example.com/b.jpg"},
		}}
		resolver := NewResolver(provider, nil, nil)

		spec := specWith(
			flow.SpecNode{Type: flow.NodeTypeHero, Content: json.RawMessage(`{"headline":"Hi","backgroundImage":{"url":"search:a","alt":"a"}}`)},
			flow.SpecNode{Type: flow.NodeTypeMedia, Content: json.RawMessage(`{"image":{"url":"search:b","alt":"b"}}`)},
		)
		resolver.Resolve(ctx, spec)

		var hero flow.HeroContent
		require.NoError(t, json.Unmarshal(spec.Nodes[0].Content, &hero))
		require.NotNil(t, hero.BackgroundImage)
		assert.Equal(t, "https://img.example.com/a.jpg", hero.BackgroundImage.URL)

		var mediaContent flow.MediaContent
		require.NoError(t, json.Unmarshal(spec.Nodes[1].Content, &mediaContent))
		assert.Equal(t, "https://img.example.com/b.jpg", mediaContent.Image.URL)
	})

	t.Run("Should count resolutions by outcome", func(t *testing.T) {
		metrics := observability.NewCollector("giftflow")
		provider := &fakePhotoProvider{photos: map[string]*Photo{
			"a": {URL: "https://img.example.com/a.jpg"},
		}}
		resolver := NewResolver(provider, metrics, nil)

		resolved := testutil.ToFloat64(metrics.MediaResolutions.WithLabelValues("resolved"))
		empty := testutil.ToFloat64(metrics.MediaResolutions.WithLabelValues("empty"))

		spec := specWith(
			flow.SpecNode{Type: flow.NodeTypeMedia, Content: json.RawMessage(`{"image":{"url":"search:a","alt":"a"}}`)},
			flow.SpecNode{Type: flow.NodeTypeMedia, Content: json.RawMessage(`{"image":{"url":"search:missing","alt":"m"}}`)},
		)
		resolver.Resolve(ctx, spec)

		assert.Equal(t, resolved+1, testutil.ToFloat64(metrics.MediaResolutions.WithLabelValues("resolved")))
		assert.Equal(t, empty+1, testutil.ToFloat64(metrics.MediaResolutions.WithLabelValues("empty")))
	})
}
