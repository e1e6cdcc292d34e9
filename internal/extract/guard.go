package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/clobrano/contentaudit/internal/audio"
	"github.com/clobrano/contentaudit/internal/config"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/models"
)

// Guard enforces size and format ceilings before any expensive call.
type Guard struct {
	limits config.Limits
}

func NewGuard(limits config.Limits) Guard {
	return Guard{limits: limits}
}

func (g Guard) Limits() config.Limits {
	return g.limits
}

// Text rejects blank input and input longer than MaxTextLength characters.
func (g Guard) Text(text string) error {
	if strings.TrimSpace(text) == "" {
		return failure.New(failure.NoContent, "No text was provided.")
	}
	if n := utf8.RuneCountInString(text); n > g.limits.MaxTextLength {
		return failure.New(failure.TooLarge,
			fmt.Sprintf("Text is too long (%d characters, limit %d).", n, g.limits.MaxTextLength))
	}
	return nil
}

// Media checks size first, then the transcription allow-list.
func (g Guard) Media(f *models.UploadedFile, mimeType string) error {
	if err := g.size(f, g.limits.MaxMediaSize, "Media file"); err != nil {
		return err
	}
	if !audio.Supported(mimeType) {
		return failure.New(failure.UnsupportedFormat,
			fmt.Sprintf("Media format %q is not supported for transcription.", mimeType))
	}
	return nil
}

func (g Guard) Image(f *models.UploadedFile) error {
	return g.size(f, g.limits.MaxImageSize, "Image")
}

func (g Guard) Document(f *models.UploadedFile) error {
	return g.size(f, g.limits.MaxDocumentSize, "Document")
}

// Audio checks a normalized audio file against the transcription limit.
func (g Guard) Audio(size int64) error {
	if size > g.limits.MaxAudioSize {
		return failure.New(failure.TooLarge,
			fmt.Sprintf("Audio exceeds %s after conversion.", formatMB(g.limits.MaxAudioSize)))
	}
	return nil
}

func (g Guard) size(f *models.UploadedFile, max int64, what string) error {
	if f == nil || len(f.Data) == 0 {
		return failure.New(failure.NoContent, what+" is empty.")
	}
	if int64(len(f.Data)) > max {
		return failure.New(failure.TooLarge, fmt.Sprintf("%s exceeds %s.", what, formatMB(max)))
	}
	return nil
}

func formatMB(n int64) string {
	return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
}
