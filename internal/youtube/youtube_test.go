package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/live/dQw4w9WgXcQ?feature=share", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=short", "", true},
		{"https://www.youtube.com/channel/UC123", "", true},
		{"https://www.youtube.com/", "", true},
		{"not a url", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := VideoID(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVideoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func watchPage(baseURL string) string {
	return `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
		`{"baseUrl":"` + baseURL + `/timedtext?lang=de","languageCode":"de"},` +
		`{"baseUrl":"` + baseURL + `/timedtext?lang=en&kind=asr","languageCode":"en","kind":"asr"}` +
		`]}},"videoDetails":{"title":"A {braced} \"title\""}};</script></html>`
}

func TestCaptionFetcher_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abcdefghijk", r.URL.Query().Get("v"))
		fmt.Fprint(w, watchPage(srv.URL))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		fmt.Fprint(w, `<?xml version="1.0"?><transcript>`+
			`<text start="0" dur="1">Buy now &amp;amp; save</text>`+
			`<text start="1" dur="1">it&amp;#39;s   guaranteed</text>`+
			`<text start="2" dur="1"> </text></transcript>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	f := NewCaptionFetcher(srv.Client()).WithWatchURL(srv.URL + "/watch?v=")
	text, err := f.Fetch(context.Background(), "abcdefghijk")
	require.NoError(t, err)
	assert.Equal(t, "Buy now & save it's guaranteed", text)
}

func TestCaptionFetcher_NoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"}};</script>`)
	}))
	defer srv.Close()

	f := NewCaptionFetcher(srv.Client()).WithWatchURL(srv.URL + "/watch?v=")
	_, err := f.Fetch(context.Background(), "abcdefghijk")
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestCaptionFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewCaptionFetcher(srv.Client()).WithWatchURL(srv.URL + "/watch?v=")
	_, err := f.Fetch(context.Background(), "abcdefghijk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPickTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "de", LanguageCode: "de"},
		{BaseURL: "en-asr", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "en", LanguageCode: "en"},
	}
	assert.Equal(t, "en", pickTrack(tracks, []string{"en"}).BaseURL)
	assert.Equal(t, "de", pickTrack(tracks, []string{"de"}).BaseURL)
	assert.Equal(t, "en", pickTrack(tracks, []string{"fr"}).BaseURL)
	assert.Equal(t, "de", pickTrack(tracks[:1], []string{"fr"}).BaseURL)
	assert.Equal(t, "en-asr", pickTrack(tracks[:2], []string{"fr"}).BaseURL)
	assert.Equal(t, "en-GB", pickTrack([]captionTrack{
		{BaseURL: "en-US-asr", LanguageCode: "en-US", Kind: "asr"},
		{BaseURL: "en-GB", LanguageCode: "en-GB"},
	}, nil).BaseURL)
}

func TestExtractJSONObject(t *testing.T) {
	got := extractJSONObject([]byte(`{"a":"}\"{","b":{"c":1}};var x = 1;`))
	assert.Equal(t, `{"a":"}\"{","b":{"c":1}}`, string(got))
	assert.Nil(t, extractJSONObject([]byte(`{"open":`)))
	assert.Nil(t, extractJSONObject([]byte(`[1,2]`)))
}

type scriptedRunner struct {
	calls [][]string
	run   func(args []string) ([]byte, error)
}

func (s *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return s.run(args)
}

func TestYtDlp_Metadata(t *testing.T) {
	r := &scriptedRunner{run: func([]string) ([]byte, error) {
		return []byte(`{"id":"abcdefghijk","title":"Ad","duration":312.5,"is_live":false}`), nil
	}}
	md, err := NewYtDlp(r).Metadata(context.Background(), "https://youtu.be/abcdefghijk")
	require.NoError(t, err)
	assert.Equal(t, "Ad", md.Title)
	assert.InDelta(t, 312.5, md.Duration, 0.001)
	assert.Contains(t, r.calls[0], "--dump-json")
}

func TestYtDlp_DownloadAudio(t *testing.T) {
	dir := t.TempDir()
	r := &scriptedRunner{run: func(args []string) ([]byte, error) {
		for i, a := range args {
			if a == "-o" {
				path := strings.Replace(args[i+1], "%(ext)s", "webm", 1)
				return nil, os.WriteFile(path, []byte("audio"), 0644)
			}
		}
		return nil, errors.New("no output template")
	}}

	path, err := NewYtDlp(r).DownloadAudio(context.Background(), "https://youtu.be/abcdefghijk", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "source.webm"), path)
}

func TestYtDlp_DownloadAudioNoFile(t *testing.T) {
	r := &scriptedRunner{run: func([]string) ([]byte, error) { return nil, nil }}
	_, err := NewYtDlp(r).DownloadAudio(context.Background(), "https://youtu.be/abcdefghijk", t.TempDir())
	assert.ErrorIs(t, err, ErrNoAudio)
}
