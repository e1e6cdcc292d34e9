package models

type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeURL      ContentType = "url"
	ContentTypeWebpage  ContentType = "webpage"
	ContentTypeVideo    ContentType = "video"
	ContentTypeAudio    ContentType = "audio"
	ContentTypeImage    ContentType = "image"
	ContentTypeDocument ContentType = "document"
	ContentTypeUnknown  ContentType = "unknown"
)

type InputKind string

const (
	InputKindText InputKind = "text"
	InputKindURL  InputKind = "url"
	InputKindFile InputKind = "file"
)

// UploadedFile is a file payload as received from the caller.
type UploadedFile struct {
	Data     []byte
	MIMEType string
	FileName string
}

// RawInput carries exactly one of Text, URL or File, selected by Kind.
type RawInput struct {
	Kind InputKind
	Text string
	URL  string
	File *UploadedFile
}

func TextInput(text string) RawInput {
	return RawInput{Kind: InputKindText, Text: text}
}

func URLInput(url string) RawInput {
	return RawInput{Kind: InputKindURL, URL: url}
}

func FileInput(data []byte, mimeType, fileName string) RawInput {
	return RawInput{
		Kind: InputKindFile,
		File: &UploadedFile{Data: data, MIMEType: mimeType, FileName: fileName},
	}
}
