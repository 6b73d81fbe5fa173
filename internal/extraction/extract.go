// Package extraction converts uploaded Lastenheft documents (PDF, DOCX) to
// plain text for the analysis pipeline.
package extraction

import (
	"bytes"
	"fmt"
	"strings"

	godocx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// MaxFileSize caps uploads at 10 MB.
const MaxFileSize = 10 * 1024 * 1024

// SupportedContentTypes maps accepted upload MIME types to their short
// format names.
var SupportedContentTypes = map[string]string{
	"application/pdf": "pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"text/plain": "text",
}

// Error is a document extraction failure, distinct from pipeline errors so
// the HTTP layer can report it as an unprocessable upload.
type Error struct {
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.cause }

func newError(cause error, format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...), cause: cause}
}

// Extract converts an uploaded file to plain text based on its content type.
func Extract(fileBytes []byte, contentType string) (string, error) {
	format, ok := SupportedContentTypes[contentType]
	if !ok {
		return "", newError(nil, "unsupported content type: %s", contentType)
	}
	if len(fileBytes) > MaxFileSize {
		return "", newError(nil, "file too large: %d bytes (max %d)", len(fileBytes), MaxFileSize)
	}
	if len(fileBytes) == 0 {
		return "", newError(nil, "empty file")
	}

	switch format {
	case "pdf":
		return FromPDF(fileBytes)
	case "docx":
		return FromDOCX(fileBytes)
	default:
		return FromText(string(fileBytes)), nil
	}
}

// FromPDF extracts the plain text of every page of a PDF document.
func FromPDF(fileBytes []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", newError(err, "failed to extract text from PDF: %v", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", newError(err, "failed to extract text from PDF: %v", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", newError(err, "failed to extract text from PDF: %v", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// FromDOCX extracts the paragraph text of a DOCX document.
func FromDOCX(fileBytes []byte) (string, error) {
	doc, err := godocx.Parse(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", newError(err, "failed to extract text from DOCX: %v", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		paragraph, ok := item.(*godocx.Paragraph)
		if !ok {
			continue
		}
		if text := strings.TrimSpace(paragraph.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}

// FromText normalizes pasted plain text.
func FromText(text string) string {
	return strings.TrimSpace(text)
}
