package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

var (
	fontLarge   font.Face
	fontRegular font.Face
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() {
	fontOnce.Do(func() {
		regularFont, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Regular: %w", err)
			return
		}
		fontRegular, err = opentype.NewFace(regularFont, &opentype.FaceOptions{
			Size:    36,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			fontErr = fmt.Errorf("create regular face: %w", err)
			return
		}

		boldFont, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Bold: %w", err)
			return
		}
		fontLarge, err = opentype.NewFace(boldFont, &opentype.FaceOptions{
			Size:    110,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			fontErr = fmt.Errorf("create large face: %w", err)
		}
	})
}

// CardData is the text drawn on a share card.
type CardData struct {
	Label       string
	Temperature string // already formatted with its unit marker
	Description string
}

// Card dimensions follow the Open Graph convention.
const (
	CardWidth  = 1200
	CardHeight = 630
	iconSize   = 180
)

// RenderCard composites the condition background and icon with the reading text.
// The icon is optional.
func RenderCard(background, icon []byte, data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	src, _, err := image.Decode(bytes.NewReader(background))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), CardWidth, CardHeight), draw.Src, nil)

	drawGradientOverlay(dst)

	if len(icon) > 0 {
		ic, _, err := image.Decode(bytes.NewReader(icon))
		if err != nil {
			return nil, fmt.Errorf("decode icon: %w", err)
		}
		r := image.Rect(CardWidth-iconSize-60, 60, CardWidth-60, 60+iconSize)
		draw.ApproxBiLinear.Scale(dst, r, ic, ic.Bounds(), draw.Over, nil)
	}

	drawTextOverlay(dst, data)

	return encodePNG(dst)
}

// RenderFallbackCard draws the reading on a plain gradient when no background is available.
func RenderFallbackCard(data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	for y := 0; y < CardHeight; y++ {
		progress := float64(y) / float64(CardHeight)
		c := color.RGBA{uint8(20 + progress*10), uint8(20 + progress*15), uint8(40 + progress*20), 255}
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	drawTextOverlay(img, data)

	return encodePNG(img)
}

// coverRect returns the centred region of src with the aspect ratio of w x h, so
// scaling it fills the card without distortion.
func coverRect(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return src
	}
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := src.Min.X + (sw-cw)/2
		return image.Rect(x0, src.Min.Y, x0+cw, src.Max.Y)
	}
	ch := sw * h / w
	y0 := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+ch)
}

// drawGradientOverlay darkens the bottom of the card so the text stays readable.
func drawGradientOverlay(img *image.RGBA) {
	bounds := img.Bounds()
	gradientHeight := 320

	for y := bounds.Max.Y - gradientHeight; y < bounds.Max.Y; y++ {
		progress := float64(y-(bounds.Max.Y-gradientHeight)) / float64(gradientHeight)
		alpha := progress * progress * 0.85

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			orig := img.RGBAAt(x, y)
			orig.R = uint8(float64(orig.R) * (1 - alpha))
			orig.G = uint8(float64(orig.G) * (1 - alpha))
			orig.B = uint8(float64(orig.B) * (1 - alpha))
			img.SetRGBA(x, y, orig)
		}
	}
}

func drawTextOverlay(img *image.RGBA, data CardData) {
	white := color.RGBA{255, 255, 255, 255}
	lightGray := color.RGBA{210, 210, 210, 255}

	drawText(img, data.Temperature, 60, CardHeight-190, white, fontLarge)
	if data.Description != "" {
		drawText(img, data.Description, 60, CardHeight-110, lightGray, fontRegular)
	}
	drawText(img, data.Label, 60, CardHeight-50, lightGray, fontRegular)
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}
