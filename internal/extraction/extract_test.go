package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_UnsupportedContentType(t *testing.T) {
	_, err := Extract([]byte("data"), "image/png")

	require.Error(t, err)
	var extractErr *Error
	assert.ErrorAs(t, err, &extractErr)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestExtract_EmptyFile(t *testing.T) {
	_, err := Extract(nil, "application/pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestExtract_TooLarge(t *testing.T) {
	oversized := make([]byte, MaxFileSize+1)

	_, err := Extract(oversized, "application/pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestExtract_PlainText(t *testing.T) {
	text, err := Extract([]byte("  Lastenheft Inhalt  \n"), "text/plain")

	require.NoError(t, err)
	assert.Equal(t, "Lastenheft Inhalt", text)
}

func TestFromPDF_GarbageIsExtractionError(t *testing.T) {
	_, err := FromPDF([]byte("definitely not a pdf"))

	require.Error(t, err)
	var extractErr *Error
	assert.ErrorAs(t, err, &extractErr)
}

func TestFromDOCX_GarbageIsExtractionError(t *testing.T) {
	_, err := FromDOCX([]byte("definitely not a zip archive"))

	require.Error(t, err)
	var extractErr *Error
	assert.ErrorAs(t, err, &extractErr)
}

func TestFromText_Normalizes(t *testing.T) {
	assert.Equal(t, "inhalt", FromText("\n  inhalt \t"))
	assert.Equal(t, "", FromText(strings.Repeat(" ", 10)))
}
