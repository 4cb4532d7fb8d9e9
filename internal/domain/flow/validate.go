package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "giftflow-backend/internal/errors"
)

var validate = validator.New()

// ValidateContent checks raw content against the shape declared by the node
// type and returns the canonical form with defaults applied. Validating a
// canonical object again yields an identical object. Structural violations
// are reported synchronously as InvalidInput; nothing is silently coerced.
func ValidateContent(t NodeType, raw json.RawMessage) (json.RawMessage, error) {
	if !IsValidNodeType(t) {
		return nil, apperrors.NewInvalidInput(fmt.Sprintf("unknown node type %q", t))
	}
	if len(raw) == 0 {
		return nil, apperrors.NewInvalidInput("content is required")
	}

	switch t {
	case NodeTypeHero:
		return decodeAndValidate(raw, &HeroContent{}, nil)
	case NodeTypeChoice:
		return decodeAndValidate(raw, &ChoiceContent{}, nil)
	case NodeTypeTextInput:
		return decodeAndValidate(raw, &TextInputContent{}, func(v any) {
			c := v.(*TextInputContent)
			if c.MaxLength == nil {
				n := 200
				c.MaxLength = &n
			}
		})
	case NodeTypeReveal:
		return decodeAndValidate(raw, &RevealContent{}, func(v any) {
			c := v.(*RevealContent)
			if c.Confetti == nil {
				t := true
				c.Confetti = &t
			}
		})
	case NodeTypeMedia:
		return decodeAndValidate(raw, &MediaContent{}, nil)
	case NodeTypeOutro:
		return decodeAndValidate(raw, &OutroContent{}, nil)
	}
	return nil, apperrors.NewInvalidInput(fmt.Sprintf("unknown node type %q", t))
}

// decodeAndValidate strictly decodes raw into target, applies defaults, runs
// the struct validator, and re-marshals the canonical form.
func decodeAndValidate(raw json.RawMessage, target any, applyDefaults func(any)) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, apperrors.NewInvalidInput("malformed content: " + err.Error())
	}

	if applyDefaults != nil {
		applyDefaults(target)
	}

	if err := validate.Struct(target); err != nil {
		return nil, apperrors.NewInvalidInput(formatValidationError(err))
	}

	canonical, err := json.Marshal(target)
	if err != nil {
		return nil, apperrors.NewInternal("failed to canonicalize content", err)
	}
	return canonical, nil
}

// formatValidationError turns validator errors into readable messages.
func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var msgs []string
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
