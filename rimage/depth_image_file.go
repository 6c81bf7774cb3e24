package rimage

import (
	"bufio"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"golang.org/x/image/tiff"
)

// ReadDepthImage reads a 16-bit grayscale depth picture from a .png, .tif or .tiff file and
// scales each raw value by scale (e.g. 0.001 for millimeter depth to meters).
func ReadDepthImage(fn string, scale float64) (*DepthImage, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening depth file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var decode func(io.Reader) (image.Image, error)
	switch ext := strings.ToLower(filepath.Ext(fn)); ext {
	case ".png":
		decode = png.Decode
	case ".tif", ".tiff":
		decode = tiff.Decode
	default:
		return nil, errors.Errorf("do not know how to read depth file %q", fn)
	}
	return decodeDepthImage(bufio.NewReader(f), decode, scale)
}

// DecodeDepthPNG reads a 16-bit grayscale PNG depth picture from r.
func DecodeDepthPNG(r io.Reader, scale float64) (*DepthImage, error) {
	return decodeDepthImage(r, png.Decode, scale)
}

func decodeDepthImage(r io.Reader, decode func(io.Reader) (image.Image, error), scale float64) (*DepthImage, error) {
	img, err := decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding depth picture")
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, NewInvalidArgumentError("expected a 16-bit grayscale depth picture but got %T", img)
	}
	return NewDepthImageFromGray16(gray, scale)
}
