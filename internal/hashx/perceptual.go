package hashx

import (
	"encoding/hex"
	"image"
	"io"
	"os"

	// Registered decoders: anything the vault may be asked to fingerprint.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	dhashWidth  = 9
	dhashHeight = 8

	// PerceptualDigestLen is the hex length of a perceptual digest (64 bits).
	PerceptualDigestLen = 16
)

// PerceptualDigest computes a 64-bit difference hash of the image in r.
//
// The image is reduced to a 9x8 grayscale thumbnail; each bit records
// whether a pixel is brighter than its left neighbour, row by row, most
// significant bit first. ok is false when r does not hold a decodable
// raster image, which is an expected outcome for non-image files.
func PerceptualDigest(r io.Reader) (digest string, ok bool) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", false
	}
	return DifferenceHash(img), true
}

// PerceptualDigestFile is PerceptualDigest for a file on disk. A missing or
// unreadable file is reported the same way as a non-image: absent.
func PerceptualDigestFile(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	return PerceptualDigest(f)
}

// DifferenceHash returns the dHash of an already decoded image.
func DifferenceHash(img image.Image) string {
	thumb := image.NewGray(image.Rect(0, 0, dhashWidth, dhashHeight))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)

	var bits uint64
	for y := 0; y < dhashHeight; y++ {
		for x := 1; x < dhashWidth; x++ {
			bits <<= 1
			if thumb.GrayAt(x, y).Y > thumb.GrayAt(x-1, y).Y {
				bits |= 1
			}
		}
	}

	var out [8]byte
	for i := range out {
		out[i] = byte(bits >> (56 - 8*i))
	}
	return hex.EncodeToString(out[:])
}
