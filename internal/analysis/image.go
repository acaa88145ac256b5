package analysis

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/llm"
)

// MaxImageSize bounds accepted chart uploads.
const MaxImageSize = 10 << 20

// LoadImage reads a chart image from r, sniffing its MIME type.
func LoadImage(r io.Reader) (llm.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return llm.Image{}, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxImageSize {
		return llm.Image{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("image larger than %d bytes", MaxImageSize))
	}
	return NewImage(data, "")
}

// LoadImageFile reads a chart image from path.
func LoadImageFile(path string) (llm.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return LoadImage(f)
}

// NewImage validates data as an image. An empty mimeType is sniffed.
func NewImage(data []byte, mimeType string) (llm.Image, error) {
	if len(data) == 0 {
		return llm.Image{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("empty image"))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		return llm.Image{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("unsupported content type %s", mimeType))
	}
	return llm.Image{MIMEType: mimeType, Data: data}, nil
}
