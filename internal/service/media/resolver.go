package media

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/observability"
)

// searchOrientation is the fixed hint sent with every placeholder search;
// flow screens render full-bleed landscape imagery.
const searchOrientation = "landscape"

// Resolver post-processes a generated flow, replacing deferred image
// placeholders with resolved photos. Per-node resolutions run concurrently
// and independently; one node's failure never aborts the others.
type Resolver struct {
	provider Provider
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewResolver creates a resolver around the given photo provider. A nil
// metrics collector disables resolution counters.
func NewResolver(provider Provider, metrics *observability.Collector, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		provider: provider,
		metrics:  metrics,
		logger:   logger.Named("media"),
	}
}

func (r *Resolver) countResolution(status string) {
	if r.metrics != nil {
		r.metrics.MediaResolutions.WithLabelValues(status).Inc()
	}
}

// Resolve scans every image-bearing node of the spec and resolves deferred
// placeholders in place. Degradation is graceful: an optional background
// image that cannot be resolved is dropped; a required media image keeps its
// placeholder so the rendering layer can detect and skip the screen.
// Resolve itself never fails.
func (r *Resolver) Resolve(ctx context.Context, spec *flow.FlowSpec) *flow.FlowSpec {
	if r.provider == nil {
		// No provider configured; placeholders stay for the rendering
		// layer to skip.
		return spec
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := range spec.Nodes {
		node := &spec.Nodes[i]
		switch node.Type {
		case flow.NodeTypeHero, flow.NodeTypeReveal, flow.NodeTypeMedia:
		default:
			continue
		}

		g.Go(func() error {
			r.resolveNode(ctx, node)
			return nil
		})
	}

	// Closures only report per-node outcomes through the logger.
	_ = g.Wait()
	return spec
}

func (r *Resolver) resolveNode(ctx context.Context, node *flow.SpecNode) {
	switch node.Type {
	case flow.NodeTypeHero:
		var content flow.HeroContent
		if err := json.Unmarshal(node.Content, &content); err != nil {
			return
		}
		content.BackgroundImage = r.resolveOptional(ctx, content.BackgroundImage)
		r.rewrite(node, &content)

	case flow.NodeTypeReveal:
		var content flow.RevealContent
		if err := json.Unmarshal(node.Content, &content); err != nil {
			return
		}
		content.BackgroundImage = r.resolveOptional(ctx, content.BackgroundImage)
		r.rewrite(node, &content)

	case flow.NodeTypeMedia:
		var content flow.MediaContent
		if err := json.Unmarshal(node.Content, &content); err != nil {
			return
		}
		if resolved, ok := r.resolveImage(ctx, content.Image); ok {
			content.Image = resolved
			r.rewrite(node, &content)
		}
		// On failure the placeholder stays; the rendering layer skips it.
	}
}

// resolveOptional resolves an optional image field, dropping it entirely
// rather than leaving a broken placeholder.
func (r *Resolver) resolveOptional(ctx context.Context, img *flow.Image) *flow.Image {
	if img == nil || !img.Deferred() {
		return img
	}
	if resolved, ok := r.resolveImage(ctx, *img); ok {
		return &resolved
	}
	return nil
}

// resolveImage searches for a deferred image's query and returns the
// resolved record. The usage-tracking call is fire-and-forget.
func (r *Resolver) resolveImage(ctx context.Context, img flow.Image) (flow.Image, bool) {
	query, ok := img.SearchQuery()
	if !ok {
		return img, true
	}

	photo, err := r.provider.Search(ctx, query, searchOrientation)
	if err != nil {
		r.logger.Warn("photo search failed", zap.String("query", query), zap.Error(err))
		r.countResolution("error")
		return img, false
	}
	if photo == nil {
		r.logger.Info("photo search returned no results", zap.String("query", query))
		r.countResolution("empty")
		return img, false
	}
	r.countResolution("resolved")

	go func() {
		trackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := r.provider.TrackDownload(trackCtx, photo.TrackingRef); err != nil {
			r.logger.Warn("download tracking failed", zap.Error(err))
		}
	}()

	return flow.Image{
		URL:         photo.URL,
		Alt:         photo.Alt,
		Attribution: photo.Attribution,
	}, true
}

func (r *Resolver) rewrite(node *flow.SpecNode, content any) {
	raw, err := json.Marshal(content)
	if err != nil {
		r.logger.Error("failed to re-encode resolved content", zap.Error(err))
		return
	}
	node.Content = raw
}
