package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "giftflow-backend/internal/errors"
)

func TestValidateContent(t *testing.T) {
	t.Run("Should accept minimal hero content", func(t *testing.T) {
		canonical, err := ValidateContent(NodeTypeHero, json.RawMessage(`{"headline":"Hello"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"headline":"Hello"}`, string(canonical))
	})

	t.Run("Should reject an empty headline", func(t *testing.T) {
		_, err := ValidateContent(NodeTypeHero, json.RawMessage(`{"headline":""}`))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		_, err := ValidateContent(NodeTypeHero, json.RawMessage(`{"headline":"Hi","surprise":true}`))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should reject an unknown node type", func(t *testing.T) {
		_, err := ValidateContent(NodeType("banner"), json.RawMessage(`{}`))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should reject empty content", func(t *testing.T) {
		_, err := ValidateContent(NodeTypeHero, nil)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should default text input max length to 200", func(t *testing.T) {
		canonical, err := ValidateContent(NodeTypeTextInput, json.RawMessage(`{"question":"Guess?"}`))
		require.NoError(t, err)

		var content TextInputContent
		require.NoError(t, json.Unmarshal(canonical, &content))
		require.NotNil(t, content.MaxLength)
		assert.Equal(t, 200, *content.MaxLength)
	})

	t.Run("Should cap text input max length at 500", func(t *testing.T) {
		_, err := ValidateContent(NodeTypeTextInput, json.RawMessage(`{"question":"Guess?","maxLength":501}`))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should reject an explicit zero max length", func(t *testing.T) {
		_, err := ValidateContent(NodeTypeTextInput, json.RawMessage(`{"question":"Guess?","maxLength":0}`))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should default reveal confetti to true", func(t *testing.T) {
		canonical, err := ValidateContent(NodeTypeReveal, json.RawMessage(`{"headline":"Surprise!"}`))
		require.NoError(t, err)

		var content RevealContent
		require.NoError(t, json.Unmarshal(canonical, &content))
		require.NotNil(t, content.Confetti)
		assert.True(t, *content.Confetti)
	})

	t.Run("Should preserve an explicit confetti false", func(t *testing.T) {
		canonical, err := ValidateContent(NodeTypeReveal, json.RawMessage(`{"headline":"Surprise!","confetti":false}`))
		require.NoError(t, err)

		var content RevealContent
		require.NoError(t, json.Unmarshal(canonical, &content))
		require.NotNil(t, content.Confetti)
		assert.False(t, *content.Confetti)
	})

	t.Run("Should require two to four choice options", func(t *testing.T) {
		one := `{"question":"q","options":[{"id":"a","label":"A"}]}`
		_, err := ValidateContent(NodeTypeChoice, json.RawMessage(one))
		assert.True(t, apperrors.IsInvalidInput(err))

		five := `{"question":"q","options":[
			{"id":"a","label":"A"},{"id":"b","label":"B"},{"id":"c","label":"C"},
			{"id":"d","label":"D"},{"id":"e","label":"E"}]}`
		_, err = ValidateContent(NodeTypeChoice, json.RawMessage(five))
		assert.True(t, apperrors.IsInvalidInput(err))

		two := `{"question":"q","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}`
		_, err = ValidateContent(NodeTypeChoice, json.RawMessage(two))
		assert.NoError(t, err)
	})

	t.Run("Should validate nested option labels", func(t *testing.T) {
		blank := `{"question":"q","options":[{"id":"a","label":""},{"id":"b","label":"B"}]}`
		_, err := ValidateContent(NodeTypeChoice, json.RawMessage(blank))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should require an image on media content", func(t *testing.T) {
		_, err := ValidateContent(NodeTypeMedia, json.RawMessage(`{"caption":"look"}`))
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should be idempotent on canonical content", func(t *testing.T) {
		inputs := map[NodeType]string{
			NodeTypeHero:      `{"headline":"Hi","body":"there"}`,
			NodeTypeChoice:    `{"question":"q","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}`,
			NodeTypeTextInput: `{"question":"Guess?"}`,
			NodeTypeReveal:    `{"headline":"Surprise!"}`,
			NodeTypeMedia:     `{"image":{"url":"search:cake","alt":"cake"}}`,
			NodeTypeOutro:     `{"headline":"Bye"}`,
		}
		for nodeType, raw := range inputs {
			first, err := ValidateContent(nodeType, json.RawMessage(raw))
			require.NoError(t, err, "type %s", nodeType)

			second, err := ValidateContent(nodeType, first)
			require.NoError(t, err, "type %s", nodeType)
			assert.Equal(t, string(first), string(second), "type %s", nodeType)
		}
	})
}

func TestImage(t *testing.T) {
	t.Run("Should round-trip a search query through a deferred image", func(t *testing.T) {
		img := DeferredImage("sunset beach")
		assert.True(t, img.Deferred())

		query, ok := img.SearchQuery()
		require.True(t, ok)
		assert.Equal(t, "sunset beach", query)
	})

	t.Run("Should treat a resolved URL as not deferred", func(t *testing.T) {
		img := Image{URL: "https://images.example.com/a.jpg"}
		assert.False(t, img.Deferred())

		_, ok := img.SearchQuery()
		assert.False(t, ok)
	})
}
