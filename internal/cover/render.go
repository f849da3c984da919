package cover

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"coverserver/internal/domain"
	"coverserver/internal/wcag"
)

// Renderer turns a validated request into an encoded image. The orchestrator
// only depends on this interface; tests substitute stubs.
type Renderer interface {
	Render(req *Request) ([]byte, error)
}

// PNGRenderer draws a flat background with the title and subtitle centered
// horizontally. The requested font family is carried through to telemetry;
// rasterization uses the embedded bitmap face.
type PNGRenderer struct{}

func (PNGRenderer) Render(req *Request) ([]byte, error) {
	bg, ok := wcag.HexToRGB(req.BackgroundColor)
	if !ok {
		return nil, fmt.Errorf("%w: invalid background color %q", domain.ErrRenderFailure, req.BackgroundColor)
	}
	fg, ok := wcag.HexToRGB(req.TextColor)
	if !ok {
		return nil, fmt.Errorf("%w: invalid text color %q", domain.ErrRenderFailure, req.TextColor)
	}

	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{bg.R, bg.G, bg.B, 255}), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{fg.R, fg.G, fg.B, 255}),
		Face: basicfont.Face7x13,
	}
	lineHeight := basicfont.Face7x13.Height

	titleY := req.Height/2 - lineHeight/2
	drawCentered(drawer, req.Title, req.Width, titleY)
	if req.Subtitle != "" {
		drawCentered(drawer, req.Subtitle, req.Width, titleY+lineHeight*2)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", domain.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

func drawCentered(d *font.Drawer, text string, width, y int) {
	textWidth := d.MeasureString(text).Ceil()
	x := (width - textWidth) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}
