package markdown

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrInvalidMarkdown is the validation error attached to a field whose content cannot be rendered.
var ErrInvalidMarkdown = validation.NewError("validation_markdown_invalid", "could not be rendered as markdown")

// Valid is an ozzo-validation rule for Markdown fields. The rendered HTML is discarded;
// the field keeps its raw Markdown.
var Valid = ValidRule{renderer: defaultRenderer}

type ValidRule struct {
	renderer *Renderer
}

// With returns a rule rendering through r.
func (v ValidRule) With(r *Renderer) ValidRule {
	return ValidRule{renderer: r}
}

func (v ValidRule) Validate(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil || validation.IsEmpty(value) {
		return nil
	}

	source, err := validation.EnsureString(value)
	if err != nil {
		return err
	}

	if err = v.renderer.Validate(source); err != nil {
		return ErrInvalidMarkdown.SetParams(map[string]any{"cause": err.Error()})
	}
	return nil
}
