// Package detect classifies raw requests and URLs. Every function here is
// pure: the same input always yields the same answer.
package detect

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/clobrano/contentaudit/internal/models"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

var documentMIMEs = map[string]bool{
	MIMEPDF:  true,
	MIMEDoc:  true,
	MIMEDocx: true,
	MIMEText: true,
}

// Extension allow-lists, mapped to the canonical MIME used when the
// declared type is missing.
var (
	imageExts = map[string]string{
		"jpg": "image/jpeg", "jpeg": "image/jpeg", "png": "image/png",
		"gif": "image/gif", "webp": "image/webp",
	}
	videoExts = map[string]string{
		"mp4": "video/mp4", "webm": "video/webm", "mov": "video/quicktime",
		"avi": "video/x-msvideo", "mkv": "video/x-matroska", "flv": "video/x-flv",
		"m4v": "video/x-m4v",
	}
	audioExts = map[string]string{
		"mp3": "audio/mpeg", "wav": "audio/wav", "m4a": "audio/m4a",
		"aac": "audio/aac", "ogg": "audio/ogg", "flac": "audio/flac",
		"wma": "audio/x-ms-wma",
	}
	documentExts = map[string]string{
		"pdf": MIMEPDF, "doc": MIMEDoc, "docx": MIMEDocx, "txt": MIMEText,
	}
)

// ContentType returns the content type of a request. Text wins over URL,
// URL wins over file. URLs are reported as ContentTypeURL; use ClassifyURL
// to refine them.
func ContentType(in models.RawInput) models.ContentType {
	if in.Text != "" {
		return models.ContentTypeText
	}
	if in.URL != "" {
		return models.ContentTypeURL
	}
	if in.File == nil {
		return models.ContentTypeUnknown
	}
	if ct := fromMIME(in.File.MIMEType); ct != models.ContentTypeUnknown {
		return ct
	}
	return fromExtension(in.File.FileName)
}

// ResolveMIME returns the declared MIME type when it is recognized,
// otherwise the canonical MIME type for the file extension. It returns ""
// when neither signal is usable.
func ResolveMIME(f *models.UploadedFile) string {
	if f == nil {
		return ""
	}
	declared := baseMIME(f.MIMEType)
	if fromMIME(declared) != models.ContentTypeUnknown {
		return declared
	}
	ext := extension(f.FileName)
	for _, table := range []map[string]string{imageExts, videoExts, audioExts, documentExts} {
		if m, ok := table[ext]; ok {
			return m
		}
	}
	return ""
}

func fromMIME(raw string) models.ContentType {
	m := baseMIME(raw)
	switch {
	case m == "":
		return models.ContentTypeUnknown
	case strings.HasPrefix(m, "image/"):
		return models.ContentTypeImage
	case strings.HasPrefix(m, "video/"):
		return models.ContentTypeVideo
	case strings.HasPrefix(m, "audio/"):
		return models.ContentTypeAudio
	case documentMIMEs[m]:
		return models.ContentTypeDocument
	}
	return models.ContentTypeUnknown
}

func fromExtension(name string) models.ContentType {
	ext := extension(name)
	if ext == "" {
		return models.ContentTypeUnknown
	}
	if _, ok := imageExts[ext]; ok {
		return models.ContentTypeImage
	}
	if _, ok := videoExts[ext]; ok {
		return models.ContentTypeVideo
	}
	if _, ok := audioExts[ext]; ok {
		return models.ContentTypeAudio
	}
	if _, ok := documentExts[ext]; ok {
		return models.ContentTypeDocument
	}
	return models.ContentTypeUnknown
}

// baseMIME drops parameters such as "; charset=utf-8" and lowercases.
func baseMIME(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m, _, err := mime.ParseMediaType(raw); err == nil {
		return m
	}
	return strings.ToLower(raw)
}

func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
