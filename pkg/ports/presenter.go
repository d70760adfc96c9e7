package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Presenter is the presentation boundary. Implementations show content and
// invoke the given callback when the player is done with it; the callback may
// be called synchronously or later from another goroutine, at most once.
type Presenter interface {
	// PresentSpeech shows a line of dialogue. onAdvance continues the dialogue.
	PresentSpeech(ctx context.Context, node *domain.SpeechNode, text string, onAdvance func())

	// PresentOptions shows the available options. onChoice takes the absolute
	// option index, not the position in options.
	PresentOptions(ctx context.Context, node *domain.OptionNode, options []PresentedOption, onChoice func(index int))

	// Hide removes any dialogue from the screen.
	Hide(ctx context.Context)
}

// PresentedOption is an available option with its text already interpolated.
type PresentedOption struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
