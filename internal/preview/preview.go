// Package preview decodes downloaded candidates for display and renders
// them as terminal thumbnails.
package preview

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Candidate is a downloaded file that decoded as an image.
type Candidate struct {
	Path   string
	Format string
	Width  int
	Height int

	// From EXIF when present. Stock and search results rarely carry it,
	// so a camera model hints at a real photograph.
	Camera string
	Taken  time.Time

	Image image.Image
}

// Describe returns a one-line summary such as "jpeg 1920x1080, Canon EOS 5D".
func (c Candidate) Describe() string {
	s := fmt.Sprintf("%s %dx%d", c.Format, c.Width, c.Height)
	if c.Camera != "" {
		s += ", " + c.Camera
	}
	if !c.Taken.IsZero() {
		s += ", " + c.Taken.Format("2006-01-02")
	}
	return s
}

// Inspect decodes files in order. Files that do not decode as images are
// left out of the result and logged at debug level.
func Inspect(files []string) []Candidate {
	out := make([]Candidate, 0, len(files))
	for _, path := range files {
		c, err := inspectFile(path)
		if err != nil {
			slog.Debug("candidate not viewable", "file", path, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func inspectFile(path string) (Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return Candidate{}, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return Candidate{}, fmt.Errorf("decode: %w", err)
	}

	b := img.Bounds()
	c := Candidate{Path: path, Format: format, Width: b.Dx(), Height: b.Dy(), Image: img}
	if format == "jpeg" {
		c.Camera, c.Taken = readExif(path)
	}
	return c, nil
}

// readExif returns camera model and capture time, or zero values.
func readExif(path string) (string, time.Time) {
	f, err := os.Open(path)
	if err != nil {
		return "", time.Time{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", time.Time{}
	}

	var camera string
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			camera = strings.TrimSpace(s)
		}
	}
	taken, _ := x.DateTime()
	return camera, taken
}

// Thumbnail renders img into cols x rows terminal cells. Each cell shows two
// vertically stacked pixels using an upper half block with foreground and
// background colours.
func Thumbnail(img image.Image, cols, rows int) string {
	if img == nil || cols < 1 || rows < 1 {
		return ""
	}

	dst := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < cols; x++ {
			top := hex(dst.RGBAAt(x, y*2))
			bottom := hex(dst.RGBAAt(x, y*2+1))
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
	}
	return b.String()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
