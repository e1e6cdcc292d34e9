package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/clobrano/contentaudit/internal/audio"
	"github.com/clobrano/contentaudit/internal/detect"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/models"
)

// RemoteMedia downloads a direct audio or video file URL and hands the
// bytes to Media. The download is bounded by MaxMediaSize and
// DownloadTimeout.
type RemoteMedia struct {
	client *http.Client
	guard  Guard
	media  *Media
}

func NewRemoteMedia(client *http.Client, guard Guard, media *Media) *RemoteMedia {
	if client == nil {
		client = &http.Client{}
	}
	return &RemoteMedia{client: client, guard: guard, media: media}
}

func (r *RemoteMedia) Extract(ctx context.Context, mediaURL string) (Outcome, error) {
	f, err := r.download(ctx, mediaURL)
	if err != nil {
		return Outcome{}, err
	}
	return r.media.Extract(ctx, f)
}

func (r *RemoteMedia) download(ctx context.Context, mediaURL string) (*models.UploadedFile, error) {
	limits := r.guard.Limits()
	ctx, cancel := context.WithTimeout(ctx, limits.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidURL, err, "URL could not be requested")
	}
	req.Header.Set("User-Agent", browserHeaders["User-Agent"])

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, failure.FromFetch(err, "Media could not be downloaded")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, failure.New(failure.AccessDenied, "Access denied downloading media (HTTP 403).")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, failure.New(failure.FetchFailed, fmt.Sprintf("Media download failed with status %d.", resp.StatusCode))
	}
	if resp.ContentLength > limits.MaxMediaSize {
		return nil, failure.New(failure.TooLarge, fmt.Sprintf("Media file exceeds %s.", formatMB(limits.MaxMediaSize)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limits.MaxMediaSize+1))
	if err != nil {
		return nil, failure.FromFetch(err, "Media download was interrupted")
	}
	if int64(len(data)) > limits.MaxMediaSize {
		return nil, failure.New(failure.TooLarge, fmt.Sprintf("Media file exceeds %s.", formatMB(limits.MaxMediaSize)))
	}

	return &models.UploadedFile{
		Data:     data,
		MIMEType: responseMIME(resp.Header.Get("Content-Type"), mediaURL),
		FileName: path.Base(resp.Request.URL.Path),
	}, nil
}

// responseMIME trusts the Content-Type header only when it names a
// transcribable type; servers often send application/octet-stream.
func responseMIME(header, mediaURL string) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && audio.Supported(mt) {
		return strings.ToLower(mt)
	}
	return detect.MIMEForURL(mediaURL)
}
