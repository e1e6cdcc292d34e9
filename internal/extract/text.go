package extract

import "context"

// Text passes free text through unchanged.
type Text struct {
	guard Guard
}

func NewText(guard Guard) *Text {
	return &Text{guard: guard}
}

func (t *Text) Extract(_ context.Context, text string) (Outcome, error) {
	if err := t.guard.Text(text); err != nil {
		return Outcome{}, err
	}
	return Outcome{ExtractedText: text, Source: "text input"}, nil
}
