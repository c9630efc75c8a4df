package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Load decodes the image at path and returns it as an 8-bit non-premultiplied
// RGBA raster with its origin at (0,0).
//
// Every call reads the file again. Nothing is cached, so a file changed on
// disk between two calls is seen by the second one.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. EXIF orientation
// is ignored; pixels are returned as stored.
func Load(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return imaging.Clone(img), nil
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Path is the file the metadata was read from.
	Path string `json:"path"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the codec that recognised the file, e.g. "png" or "jpeg".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo reads the header of the image at path and returns its
// metadata. Only the image configuration is decoded, not the pixels.
//
// The format comes from the file contents, not its extension, so a JPEG
// committed over as PNG bytes reports "png".
func LoadImageInfo(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	return &ImageInfo{
		Path:          path,
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
