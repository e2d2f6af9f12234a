package label

import (
	"fmt"
	"github.com/cockroachdb/errors"
	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	log "github.com/sirupsen/logrus"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
)

// card size of 50x81.6mm (85.60 mm × 53.98 with 2mm margin on each side) at 600 DPI
// = 1181 x 1928 pix
const (
	Height     = 1928
	Width      = 1181
	artSize    = 755
	strokeSize = 4
)

var colors = []string{
	"#0048BA",
	"#D3212D",
	"#32CD32",
	"#F4C2C2",
	"#8A2BE2",
	"#FF7E00",
	"#FDEE00",
}

// Label is what gets printed on a card.
type Label struct {
	Folder int
	Title  string
	// Cover is optional. It is scaled to fit the top of the label.
	Cover image.Image
	// FontFile is a TTF to render text with. When empty the small built in font is used.
	FontFile string
}

func CreateLabel(l Label, out io.Writer) error {
	c, err := render(l)
	if err != nil {
		return err
	}
	log.Debugf("Rendering label for folder %02d to a PNG", l.Folder)
	if err := c.EncodePNG(out); err != nil {
		return errors.Wrap(err, "could not render PNG")
	}
	return nil
}

// LoadCover reads a PNG or JPEG from disk.
func LoadCover(fileName string) (image.Image, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %v", fileName)
	}
	return img, nil
}

func render(l Label) (*gg.Context, error) {
	c := gg.NewContext(Width, Height)
	c.SetRGB(1, 1, 1)
	c.Clear()

	col := colors[l.Folder%len(colors)]
	origin := Width / 2

	if l.Cover != nil {
		scaled := resize.Thumbnail(artSize, artSize, l.Cover, resize.Lanczos3)
		c.DrawImageAnchored(scaled, origin, origin, 0.5, 0.5)
	} else {
		c.SetHexColor(col)
		c.DrawCircle(float64(origin), float64(origin), artSize/2)
		c.Fill()
	}

	c.SetLineWidth(strokeSize)
	c.SetRGB(0, 0, 0)
	c.DrawRectangle(strokeSize, strokeSize, Width-2*strokeSize, Height-2*strokeSize)
	c.Stroke()

	c.SetHexColor(col)
	if err := renderString(c, l.FontFile, fmt.Sprintf("%02d", l.Folder), 256, 1450); err != nil {
		return nil, err
	}
	if l.Title != "" {
		c.SetRGB(0.2, 0.2, 0.2)
		if err := renderString(c, l.FontFile, strings.ToUpper(l.Title), 72, 1700); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func renderString(c *gg.Context, fontFile, s string, size, y float64) error {
	if fontFile != "" {
		if err := c.LoadFontFace(fontFile, size); err != nil {
			return errors.Wrap(err, "could not load the font")
		}
	}
	lines := c.WordWrap(s, Width-(Width/10))
	for i, line := range lines {
		c.DrawStringAnchored(line, Width/2, y+float64(i)*size*1.2, 0.5, 0.5)
	}
	return nil
}
