// Package youtube talks to YouTube for the two things the audit needs: the
// caption track of a video and, when there is none, its audio via yt-dlp.
package youtube

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidVideoURL is returned when no video ID can be found in a URL.
var ErrInvalidVideoURL = errors.New("invalid YouTube video URL")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes are the URL shapes that carry the ID as the next path segment.
var pathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}

// VideoID extracts the 11 character video ID from the watch, youtu.be,
// shorts, embed and live URL shapes.
func VideoID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", ErrInvalidVideoURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var candidate string
	switch {
	case host == "youtu.be":
		candidate = firstSegment(u.Path)
	case u.Path == "/watch":
		candidate = u.Query().Get("v")
	default:
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				candidate = firstSegment(strings.TrimPrefix(u.Path, prefix))
				break
			}
		}
	}

	if !videoIDPattern.MatchString(candidate) {
		return "", ErrInvalidVideoURL
	}
	return candidate, nil
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}
