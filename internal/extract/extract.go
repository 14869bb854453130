// Package extract converts uploaded files into plain text.
package extract

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEHTML     = "text/html"
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
	mimeOctet    = "application/octet-stream"
	mimeZip      = "application/zip"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrInvalidText       = errors.New("text is not valid utf-8")
)

var extensionTypes = map[string]string{
	".pdf":      MIMEPDF,
	".docx":     MIMEDOCX,
	".pptx":     MIMEPPTX,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
	".txt":      MIMEText,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
}

// Extract returns the text of data. PPTX and unknown types fail with
// ErrUnsupportedFormat.
func Extract(data []byte, mimeType string) (string, error) {
	switch normalize(mimeType) {
	case MIMEPDF:
		return extractPDF(data)
	case MIMEDOCX:
		return extractDOCX(data)
	case MIMEHTML:
		return extractHTML(data)
	case MIMEPPTX:
		return "", ErrUnsupportedFormat
	}
	if strings.HasPrefix(normalize(mimeType), "text/") {
		if !utf8.Valid(data) {
			return "", ErrInvalidText
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", ErrUnsupportedFormat
}

// DetectMIME picks the media type of an upload. A specific declared type
// wins; otherwise the content is sniffed, then the file extension is tried.
func DetectMIME(data []byte, filename, declared string) string {
	if d := normalize(declared); d != "" && d != mimeOctet && d != mimeZip {
		return d
	}
	sniffed := normalize(mimetype.Detect(data).String())
	if sniffed != mimeOctet && sniffed != mimeZip {
		return sniffed
	}
	if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return byExt
	}
	return sniffed
}

func normalize(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(mimeType)
}
