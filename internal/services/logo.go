package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// logoPixels is the edge of the square a logo is normalized to.
const logoPixels = 256

// loadLogo reads a logo from a data URL or a file path.
func loadLogo(src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, nil
	case strings.HasPrefix(src, "data:"):
		return parseDataURL(src)
	default:
		return os.ReadFile(src)
	}
}

func parseDataURL(value string) ([]byte, error) {
	comma := strings.Index(value, ",")
	if comma <= len("data:") {
		return nil, errors.New("invalid data url payload")
	}
	meta := value[len("data:"):comma]
	if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, errors.New("data url must be base64")
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value[comma+1:]))
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	if len(decoded) == 0 {
		return nil, errors.New("empty data url content")
	}
	return decoded, nil
}

// normalizeLogo decodes PNG, JPEG, GIF or WebP bytes and re-encodes them as a
// square PNG, centered with the aspect ratio kept, so gofpdf only ever sees
// one format.
func normalizeLogo(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty logo")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, fmt.Errorf("decode logo: %w", err)
		}
		img = decoded
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("invalid logo dimensions")
	}

	w, h := logoPixels, logoPixels
	if b.Dx() > b.Dy() {
		h = max(1, logoPixels*b.Dy()/b.Dx())
	} else if b.Dy() > b.Dx() {
		w = max(1, logoPixels*b.Dx()/b.Dy())
	}
	offX, offY := (logoPixels-w)/2, (logoPixels-h)/2

	dst := image.NewRGBA(image.Rect(0, 0, logoPixels, logoPixels))
	xdraw.CatmullRom.Scale(dst, image.Rect(offX, offY, offX+w, offY+h), img, b, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return out.Bytes(), nil
}
