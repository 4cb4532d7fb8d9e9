// Package flow defines the node type taxonomy, per-type content shapes, and
// the validation that every piece of content passes before it is generated,
// stored, or rendered.
package flow

import (
	"strings"
)

// NodeType identifies one of the closed set of screen types.
type NodeType string

const (
	NodeTypeHero      NodeType = "hero"
	NodeTypeChoice    NodeType = "choice"
	NodeTypeTextInput NodeType = "text-input"
	NodeTypeReveal    NodeType = "reveal"
	NodeTypeMedia     NodeType = "media"
	NodeTypeOutro     NodeType = "outro"
)

// AllNodeTypes lists every valid node type.
var AllNodeTypes = []NodeType{
	NodeTypeHero,
	NodeTypeChoice,
	NodeTypeTextInput,
	NodeTypeReveal,
	NodeTypeMedia,
	NodeTypeOutro,
}

// IsValidNodeType checks membership in the closed type set.
func IsValidNodeType(t NodeType) bool {
	for _, v := range AllNodeTypes {
		if t == v {
			return true
		}
	}
	return false
}

// IsInteractive reports whether the type collects recipient input.
func (t NodeType) IsInteractive() bool {
	return t == NodeTypeChoice || t == NodeTypeTextInput
}

// Theme names one of the four palettes the generator may select.
type Theme string

const (
	ThemeSunset   Theme = "sunset"
	ThemeOcean    Theme = "ocean"
	ThemeForest   Theme = "forest"
	ThemeMidnight Theme = "midnight"
)

// AllThemes lists every valid theme.
var AllThemes = []Theme{ThemeSunset, ThemeOcean, ThemeForest, ThemeMidnight}

// IsValidTheme checks membership in the palette set.
func IsValidTheme(t Theme) bool {
	for _, v := range AllThemes {
		if t == v {
			return true
		}
	}
	return false
}

// DeferredImagePrefix marks an image URL that carries a search query instead
// of a resolved location. The media resolution stage replaces these after
// generation; the rendering layer skips any that survive unresolved.
const DeferredImagePrefix = "search:"

// Image is an image reference inside node content. The URL is either a real
// location or a deferred placeholder built with DeferredImage.
type Image struct {
	URL         string `json:"url" validate:"required"`
	Alt         string `json:"alt"`
	Attribution string `json:"attribution,omitempty"`
}

// DeferredImage builds a placeholder carrying the search query to resolve later.
func DeferredImage(query string) Image {
	return Image{URL: DeferredImagePrefix + query, Alt: query}
}

// Deferred reports whether the image is an unresolved placeholder.
func (i Image) Deferred() bool {
	return strings.HasPrefix(i.URL, DeferredImagePrefix)
}

// SearchQuery returns the embedded search query of a deferred image.
func (i Image) SearchQuery() (string, bool) {
	if !i.Deferred() {
		return "", false
	}
	return strings.TrimPrefix(i.URL, DeferredImagePrefix), true
}
