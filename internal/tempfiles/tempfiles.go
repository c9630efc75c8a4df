package tempfiles

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Kind identifies which transform produced a temp file.
type Kind int

const (
	Gray Kind = iota
	Threshold
	Cleanup
)

// Kinds lists every kind in a fixed order.
var Kinds = []Kind{Gray, Threshold, Cleanup}

// Suffix returns the file name suffix for k.
func (k Kind) Suffix() string {
	switch k {
	case Gray:
		return ".gray.tmp.png"
	case Threshold:
		return ".threshold.tmp.png"
	case Cleanup:
		return ".cleanup.tmp.png"
	default:
		return ".tmp.png"
	}
}

func (k Kind) String() string {
	switch k {
	case Gray:
		return "gray"
	case Threshold:
		return "threshold"
	case Cleanup:
		return "cleanup"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Path returns the temp file path for original and k: the original path with
// the kind's suffix appended, e.g. "photo.jpg.gray.tmp.png".
func Path(original string, k Kind) string {
	return original + k.Suffix()
}

// SweepCandidates returns every path a temp file for original may live at.
//
// For each kind this is the appended form produced by Path and the stem form
// "<dir>/<stem><suffix>", where stem is the base name without its extension.
// Duplicates are removed; an original without an extension yields the same
// path for both forms.
func SweepCandidates(original string) []string {
	if original == "" {
		return nil
	}

	dir := filepath.Dir(original)
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	seen := make(map[string]bool)
	var paths []string
	for _, k := range Kinds {
		for _, p := range []string{Path(original, k), filepath.Join(dir, stem+k.Suffix())} {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// Write encodes img as PNG at path, replacing any existing file.
//
// The path must carry a .png extension; temp paths from Path always do.
func Write(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Copy replaces the contents of dst with the bytes of src. dst is created if
// it does not exist and keeps its permissions if it does.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

// Remove deletes path. A path that does not exist is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Sweep removes every candidate temp file for original and returns the
// paths it deleted. It keeps going after a failure; all failures are
// returned joined.
func Sweep(original string) ([]string, error) {
	var removed []string
	var errs []error

	for _, p := range SweepCandidates(original) {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := Remove(p); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, p)
	}

	return removed, errors.Join(errs...)
}
