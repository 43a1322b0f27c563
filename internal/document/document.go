// Package document turns uploaded files into plain text. Each supported
// format has its own extractor; Extract picks one by Kind.
package document

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Kind is a supported document format.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
	KindDoc  Kind = "doc"
	KindDocx Kind = "docx"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// TruncationMarker is appended to content cut at the character limit.
const TruncationMarker = "\n\n[Content truncated...]"

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyContent    = errors.New("no text could be extracted from the document")
	ErrEncrypted       = errors.New("document is password protected")
)

var mimeKinds = map[string]Kind{
	MIMEText: KindText,
	MIMEPDF:  KindPDF,
	MIMEDoc:  KindDoc,
	MIMEDocx: KindDocx,
}

var extKinds = map[string]Kind{
	".txt":  KindText,
	".text": KindText,
	".md":   KindText,
	".pdf":  KindPDF,
	".doc":  KindDoc,
	".docx": KindDocx,
}

// DetectKind resolves the document format from the declared content type.
// Browsers often send application/octet-stream, so the file extension is
// consulted when the declared type says nothing useful.
func DetectKind(contentType, filename string) (Kind, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if kind, ok := mimeKinds[mediaType]; ok {
			return kind, nil
		}
		if mediaType != "application/octet-stream" && mediaType != "" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
		}
	}
	if kind, ok := extKinds[strings.ToLower(filepath.Ext(filename))]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filename)
}

// Extract reads the file at path and returns its text with line endings
// normalized and surrounding whitespace trimmed.
func Extract(path string, kind Kind) (string, error) {
	var (
		text string
		err  error
	)
	switch kind {
	case KindText:
		text, err = extractText(path)
	case KindPDF:
		text, err = extractPDF(path)
	case KindDoc:
		text, err = extractDoc(path)
	case KindDocx:
		text, err = extractDocx(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
	if err != nil {
		return "", fmt.Errorf("could not extract %s text: %w", kind, err)
	}

	text = normalize(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// Result is the outcome of an upload as returned to the client.
type Result struct {
	Content        string `json:"content"`
	OriginalLength int    `json:"originalLength"`
	Truncated      bool   `json:"truncated"`
}

// Truncate limits text to maxChars characters, appending TruncationMarker
// when anything was cut.
func Truncate(text string, maxChars int) Result {
	n := utf8.RuneCountInString(text)
	if n <= maxChars {
		return Result{Content: text, OriginalLength: n}
	}
	runes := []rune(text)
	return Result{
		Content:        string(runes[:maxChars]) + TruncationMarker,
		OriginalLength: n,
		Truncated:      true,
	}
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
