package detect

import (
	"net/url"
	"path"
	"strings"

	"github.com/clobrano/contentaudit/internal/failure"
)

type URLKind string

const (
	URLYouTube       URLKind = "youtube"
	URLVideoPlatform URLKind = "video-platform"
	URLVideoFile     URLKind = "video-file"
	URLAudioFile     URLKind = "audio-file"
	URLWebpage       URLKind = "webpage"
)

var youtubeHosts = []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}

// videoPlatforms maps a host to an optional required path prefix.
var videoPlatforms = []struct {
	host   string
	prefix string
}{
	{"vimeo.com", ""},
	{"dailymotion.com", ""},
	{"tiktok.com", ""},
	{"twitch.tv", ""},
	{"facebook.com", "/watch"},
	{"instagram.com", "/reel"},
}

// ValidateURL accepts only parseable http(s) URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return failure.Wrap(failure.InvalidURL, err, "URL could not be parsed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return failure.New(failure.InvalidURL, "URL scheme must be http or https")
	}
	if u.Hostname() == "" {
		return failure.New(failure.InvalidURL, "URL has no host")
	}
	return nil
}

// ClassifyURL decides which extraction path a validated URL takes.
// Callers must run ValidateURL first; unparseable input is treated as a
// webpage.
func ClassifyURL(raw string) URLKind {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URLWebpage
	}
	host := strings.ToLower(u.Hostname())

	for _, h := range youtubeHosts {
		if hostMatches(host, h) {
			return URLYouTube
		}
	}
	for _, p := range videoPlatforms {
		if hostMatches(host, p.host) && strings.HasPrefix(u.Path, p.prefix) {
			return URLVideoPlatform
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if _, ok := videoExts[ext]; ok {
		return URLVideoFile
	}
	if _, ok := audioExts[ext]; ok {
		return URLAudioFile
	}
	return URLWebpage
}

// MIMEForURL guesses a media MIME type from the URL path extension.
func MIMEForURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if m, ok := videoExts[ext]; ok {
		return m
	}
	if m, ok := audioExts[ext]; ok {
		return m
	}
	return ""
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
