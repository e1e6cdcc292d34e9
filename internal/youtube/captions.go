package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
)

// ErrNoCaptions is returned when a video has no usable caption track.
var ErrNoCaptions = errors.New("no captions available")

const (
	defaultWatchURL     = "https://www.youtube.com/watch?v="
	playerResponseMark  = "ytInitialPlayerResponse = "
	maxWatchPageBytes   = 6 << 20
	maxTimedTextBytes   = 2 << 20
	browserUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	browserAcceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// CaptionFetcher reads the caption track linked from the watch page.
type CaptionFetcher struct {
	client   *http.Client
	watchURL string
	langs    []string
}

// NewCaptionFetcher builds a fetcher. langs is the language preference
// order; English is tried when none of them match.
func NewCaptionFetcher(client *http.Client, langs ...string) *CaptionFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	return &CaptionFetcher{client: client, watchURL: defaultWatchURL, langs: langs}
}

// WithWatchURL overrides the watch page prefix the video ID is appended to.
func (f *CaptionFetcher) WithWatchURL(prefix string) *CaptionFetcher {
	f.watchURL = prefix
	return f
}

type playerResponse struct {
	Captions *struct {
		TracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch returns the plain caption text for videoID.
func (f *CaptionFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	page, err := f.get(ctx, f.watchURL+videoID, maxWatchPageBytes)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	idx := strings.Index(string(page), playerResponseMark)
	if idx < 0 {
		return "", ErrNoCaptions
	}
	raw := extractJSONObject(page[idx+len(playerResponseMark):])
	if raw == nil {
		return "", fmt.Errorf("malformed player response: %w", ErrNoCaptions)
	}

	var resp playerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode player response: %w", err)
	}
	if resp.Captions == nil || len(resp.Captions.TracklistRenderer.CaptionTracks) == 0 {
		return "", ErrNoCaptions
	}

	track := pickTrack(resp.Captions.TracklistRenderer.CaptionTracks, f.langs)
	body, err := f.get(ctx, track.BaseURL, maxTimedTextBytes)
	if err != nil {
		return "", fmt.Errorf("timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		return "", ErrNoCaptions
	}
	return sb.String(), nil
}

func (f *CaptionFetcher) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAcceptHeader)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// pickTrack prefers a manual track in a preferred language, then an
// auto-generated one, then a manual English track, then any English
// track, then the first track.
func pickTrack(tracks []captionTrack, langs []string) captionTrack {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, manual := range []bool{true, false} {
		for _, t := range tracks {
			if strings.HasPrefix(t.LanguageCode, "en") && (t.Kind != "asr" || !manual) {
				return t
			}
		}
	}
	return tracks[0]
}

// extractJSONObject returns the balanced {...} prefix of b.
func extractJSONObject(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
