package imagemeta

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Meta describes an image container as read from its bytes.
type Meta struct {
	Type     string // file extension without the dot: jpg, png, webp
	MIMEType string
	Width    int
	Height   int
}

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Sniff detects the container type and reads pixel dimensions without
// decoding the full image.
func Sniff(data []byte) (*Meta, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	mtype := mimetype.Detect(data)
	if !supported[mtype.String()] {
		return nil, fmt.Errorf("unsupported image type %s", mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	return &Meta{
		Type:     strings.TrimPrefix(mtype.Extension(), "."),
		MIMEType: mtype.String(),
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
