package flow

// Content shapes, one per node type. All bounds are enforced by the validator
// tags; defaults are applied by normalization during ValidateContent so that a
// canonical content object validates to itself.

// HeroContent is the opening/context screen.
type HeroContent struct {
	Headline        string `json:"headline" validate:"required,min=1,max=200"`
	Body            string `json:"body,omitempty" validate:"omitempty,max=1000"`
	BackgroundImage *Image `json:"backgroundImage,omitempty"`
}

// ChoiceOption is one selectable answer of a choice screen.
type ChoiceOption struct {
	ID    string `json:"id" validate:"required"`
	Label string `json:"label" validate:"required,min=1,max=100"`
}

// ChoiceContent is a multiple-choice question screen.
type ChoiceContent struct {
	Question      string         `json:"question" validate:"required,min=1,max=200"`
	Options       []ChoiceOption `json:"options" validate:"required,min=2,max=4,dive"`
	AllowMultiple bool           `json:"allowMultiple"`
}

// TextInputContent is a free-text question screen.
type TextInputContent struct {
	Question    string `json:"question" validate:"required,min=1,max=200"`
	Placeholder string `json:"placeholder,omitempty" validate:"omitempty,max=100"`
	// MaxLength defaults to 200 when omitted. An explicit value, zero
	// included, must be in range.
	MaxLength *int `json:"maxLength" validate:"required,min=1,max=500"`
}

// RevealCTA is the optional call-to-action of a reveal screen.
type RevealCTA struct {
	Label string `json:"label" validate:"required,min=1,max=50"`
	URL   string `json:"url" validate:"required"`
}

// RevealContent is the climactic/payoff screen.
type RevealContent struct {
	Headline        string     `json:"headline" validate:"required,min=1,max=200"`
	Body            string     `json:"body,omitempty" validate:"omitempty,max=1000"`
	CTA             *RevealCTA `json:"cta,omitempty"`
	// Confetti defaults to true when omitted.
	Confetti        *bool  `json:"confetti"`
	BackgroundImage *Image `json:"backgroundImage,omitempty"`
}

// MediaContent is an image screen with an optional caption.
type MediaContent struct {
	Image   Image  `json:"image" validate:"required"`
	Caption string `json:"caption,omitempty" validate:"omitempty,max=200"`
}

// OutroContent is the terminal/closing screen.
type OutroContent struct {
	Headline    string `json:"headline" validate:"required,min=1,max=200"`
	Body        string `json:"body,omitempty" validate:"omitempty,max=500"`
	SharePrompt string `json:"sharePrompt,omitempty" validate:"omitempty,max=100"`
}
