package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/config"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/logger"
)

// nonContentSelectors are removed before readability runs.
const nonContentSelectors = "script, style, noscript, nav, footer, header, aside, iframe, svg"

// contentSelectors mark a form as a page wrapper (ASP.NET WebForms puts
// the whole body in one) rather than a search or signup box.
const contentSelectors = "article, main, p"

const maxPageBytes = 8 << 20

// browserHeaders are sent on every page fetch.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
}

// Webpage fetches a page and keeps only its readable main content.
// Readability is the only technique: a page it cannot read is a failure.
type Webpage struct {
	client *http.Client
	guard  Guard
	log    *zap.Logger
}

func NewWebpage(client *http.Client, guard Guard, log *zap.Logger) *Webpage {
	if client == nil {
		client = &http.Client{}
	}
	return &Webpage{client: client, guard: guard, log: logger.OrNop(log)}
}

func (w *Webpage) Extract(ctx context.Context, pageURL string) (Outcome, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return Outcome{}, failure.Wrap(failure.InvalidURL, err, "URL could not be parsed")
	}

	limits := w.guard.Limits()
	ctx, cancel := context.WithTimeout(ctx, limits.FetchTimeout)
	defer cancel()

	body, err := w.fetch(ctx, pageURL)
	if err != nil {
		return Outcome{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Outcome{}, failure.Wrap(failure.NoContent, err, "Page HTML could not be parsed.")
	}
	doc.Find(nonContentSelectors).Remove()
	doc.Find("form").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find(contentSelectors).Length() == 0
	}).Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return Outcome{}, failure.Wrap(failure.NoContent, err, "Page HTML could not be parsed.")
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), parsed)
	if err != nil {
		return Outcome{}, failure.Wrap(failure.NoContent, err, noContentMessage)
	}

	text := collapseBlankLines(article.TextContent)
	if charCount(text) < limits.MinWebpageChars {
		w.log.Info("Webpage yielded too little text",
			zap.String("url", pageURL),
			zap.Int("chars", charCount(text)),
		)
		return Outcome{}, failure.New(failure.NoContent, noContentMessage)
	}

	title := strings.TrimSpace(article.Title)
	out := text
	if title != "" {
		out = title + "\n\n" + text
	}
	return Outcome{
		ExtractedText: truncateRunes(out, outputCap(limits)),
		Source:        "webpage " + parsed.Hostname(),
	}, nil
}

// outputCap keeps long pages under the analysis text limit so they are
// truncated here instead of rejected later.
func outputCap(l config.Limits) int {
	if l.MaxTextLength > 0 && l.MaxTextLength < l.MaxWebpageChars {
		return l.MaxTextLength
	}
	return l.MaxWebpageChars
}

const noContentMessage = "Unable to extract actual website content due to bot protection or insufficient content."

func (w *Webpage) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidURL, err, "URL could not be requested")
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, failure.FromFetch(err, "Page could not be fetched")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, failure.New(failure.AccessDenied, "Access denied or bot protection (HTTP 403).")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, failure.New(failure.FetchFailed, fmt.Sprintf("Fetch failed with status %d.", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, failure.FromFetch(err, "Page could not be read")
	}
	return body, nil
}

// collapseBlankLines trims every line and drops empty ones.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
