package flow

import (
	"encoding/json"
	"fmt"

	apperrors "giftflow-backend/internal/errors"
)

const (
	// MaxFlowNodes caps the nodes of any flow, generated or edited.
	MaxFlowNodes = 20

	// Generation is asked for a tighter range than the schema allows.
	MinGeneratedNodes = 4
	MaxGeneratedNodes = 12
)

// FlowSpec is the ephemeral output of generation, consumed once to create a
// project and its initial node set. It is never stored verbatim.
type FlowSpec struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	Theme       Theme      `json:"theme" validate:"required"`
	Nodes       []SpecNode `json:"nodes"`
}

// SpecNode is one node of a flow specification, its content keyed by type.
type SpecNode struct {
	Type    NodeType        `json:"type"`
	Content json.RawMessage `json:"content"`
}

// ValidateSpec runs the flow-level schema validation: top-level fields, theme
// membership, node count in [1, MaxFlowNodes], and every node's content
// against its declared type. Node contents are replaced with their canonical
// forms so the returned spec validates to itself.
func ValidateSpec(spec *FlowSpec) error {
	if err := validate.Struct(spec); err != nil {
		return apperrors.NewInvalidInput(formatValidationError(err))
	}
	if !IsValidTheme(spec.Theme) {
		return apperrors.NewInvalidInput(fmt.Sprintf("unknown theme %q", spec.Theme))
	}
	if len(spec.Nodes) < 1 || len(spec.Nodes) > MaxFlowNodes {
		return apperrors.NewInvalidInput(fmt.Sprintf("flow must have between 1 and %d nodes, got %d", MaxFlowNodes, len(spec.Nodes)))
	}

	for i := range spec.Nodes {
		canonical, err := ValidateContent(spec.Nodes[i].Type, spec.Nodes[i].Content)
		if err != nil {
			return apperrors.Wrap(err, fmt.Sprintf("node %d (%s)", i, spec.Nodes[i].Type))
		}
		spec.Nodes[i].Content = canonical
	}
	return nil
}

// ValidateGenerated enforces the structural contract the generator is held
// to, on top of ValidateSpec: 4-12 nodes, opens with a hero, closes with an
// outro, at most one reveal placed near the end, and at least one interactive
// node. The model may violate any of these; the pipeline treats a violation
// as a retryable failure.
func ValidateGenerated(spec *FlowSpec) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}

	n := len(spec.Nodes)
	if n < MinGeneratedNodes || n > MaxGeneratedNodes {
		return apperrors.NewInvalidInput(fmt.Sprintf("generated flow must have %d-%d nodes, got %d", MinGeneratedNodes, MaxGeneratedNodes, n))
	}
	if spec.Nodes[0].Type != NodeTypeHero {
		return apperrors.NewInvalidInput("generated flow must open with a hero node")
	}
	if spec.Nodes[n-1].Type != NodeTypeOutro {
		return apperrors.NewInvalidInput("generated flow must close with an outro node")
	}

	reveals := 0
	interactive := 0
	for i, node := range spec.Nodes {
		switch {
		case node.Type == NodeTypeReveal:
			reveals++
			// The reveal belongs in the last fifth of the sequence.
			if float64(i) < 0.8*float64(n-1) {
				return apperrors.NewInvalidInput(fmt.Sprintf("reveal node at index %d is too early for a %d-node flow", i, n))
			}
		case node.Type.IsInteractive():
			interactive++
		}
	}
	if reveals > 1 {
		return apperrors.NewInvalidInput(fmt.Sprintf("generated flow has %d reveal nodes, at most one is allowed", reveals))
	}
	if interactive < 1 {
		return apperrors.NewInvalidInput("generated flow must include at least one interactive node")
	}
	return nil
}
