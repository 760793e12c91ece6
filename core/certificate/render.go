package certificate

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	width  = 1600
	height = 1131
)

var (
	boldFont    *truetype.Font
	regularFont *truetype.Font
)

func init() {
	boldFont = mustParse(gobold.TTF)
	regularFont = mustParse(goregular.TTF)
}

func mustParse(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingNone})
}

// Render draws c as a landscape PNG.
func Render(c Certificate, courseTitle string) ([]byte, error) {
	dc := gg.NewContext(width, height)

	dc.SetColor(color.White)
	dc.Clear()

	gold := color.RGBA{R: 0xB8, G: 0x86, B: 0x0B, A: 0xFF}
	dc.SetColor(gold)
	dc.SetLineWidth(12)
	dc.DrawRectangle(40, 40, width-80, height-80)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(70, 70, width-140, height-140)
	dc.Stroke()

	cx := float64(width) / 2
	dark := color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}

	dc.SetColor(dark)
	dc.SetFontFace(face(boldFont, 72))
	dc.DrawStringAnchored("Certificate of Completion", cx, 260, 0.5, 0.5)

	dc.SetFontFace(face(regularFont, 32))
	dc.DrawStringAnchored("This certifies that", cx, 400, 0.5, 0.5)

	name := c.UserFullName
	if name == "" {
		name = "Learner"
	}
	dc.SetColor(gold)
	dc.SetFontFace(face(boldFont, 64))
	dc.DrawStringAnchored(name, cx, 510, 0.5, 0.5)

	dc.SetColor(dark)
	dc.SetFontFace(face(regularFont, 32))
	dc.DrawStringAnchored("has successfully completed", cx, 620, 0.5, 0.5)

	dc.SetFontFace(face(boldFont, 44))
	dc.DrawStringWrapped(courseTitle, cx, 720, 0.5, 0.5, width-400, 1.3, gg.AlignCenter)

	dc.SetFontFace(face(regularFont, 26))
	dc.DrawStringAnchored(fmt.Sprintf("Issued on %s", c.IssueDate.Format("January 2, 2006")), cx-350, 950, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Certificate No. %s", c.Number), cx+350, 950, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding certificate image: %w", err)
	}
	return buf.Bytes(), nil
}
