package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Artifact geometry and encoding. Quality is fixed so exported archives stay predictable.
const (
	FrameWidth  = 1280
	FrameHeight = 720
	JPEGQuality = 80

	// StampLayout renders as dd/MM/yyyy HH:mm:ss.
	StampLayout = "02/01/2006 15:04:05"

	minBandHeight = 80
	padding       = 20
	stampSize     = 24
	locationSize  = 16
)

var (
	bandColor     = color.NRGBA{A: 204} // black, 80%
	stampColor    = color.NRGBA{R: 0xfb, G: 0xbf, B: 0x24, A: 0xff}
	locationColor = color.White
)

var (
	fontsOnce sync.Once
	boldFont  *opentype.Font
	plainFont *opentype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if boldFont, fontsErr = opentype.Parse(gobold.TTF); fontsErr != nil {
			return
		}
		plainFont, fontsErr = opentype.Parse(goregular.TTF)
	})
	return fontsErr
}

// faces are not safe for concurrent use, so every render gets its own.
func newFaces() (stamp, location font.Face, err error) {
	if err := loadFonts(); err != nil {
		return nil, nil, fmt.Errorf("load fonts: %w", err)
	}
	stamp, err = opentype.NewFace(boldFont, &opentype.FaceOptions{Size: stampSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, nil, err
	}
	location, err = opentype.NewFace(plainFont, &opentype.FaceOptions{Size: locationSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		stamp.Close()
		return nil, nil, err
	}
	return stamp, location, nil
}

// annotate draws frame into a FrameWidth x FrameHeight raster and overlays the
// timestamp and location band. It returns the band height.
func annotate(frame image.Image, stamp, location string) (*image.RGBA, int, error) {
	stampFace, locFace, err := newFaces()
	if err != nil {
		return nil, 0, err
	}
	defer stampFace.Close()
	defer locFace.Close()

	dst := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, fitRect(frame.Bounds(), dst.Bounds()), frame, frame.Bounds(), draw.Src, nil)

	stampH := stampFace.Metrics().Height.Ceil()
	lineH := locFace.Metrics().Height.Ceil()
	maxWidth := FrameWidth - 2*padding

	lines := wrapText(locFace, strings.ToValidUTF8(location, "\uFFFD"), maxWidth)
	// The band may take at most half the frame; anything beyond that is marked with "...".
	if maxLines := (FrameHeight/2 - padding - stampH) / lineH; len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = ellipsize(locFace, lines[maxLines-1], maxWidth)
	}

	band := padding + stampH + len(lines)*lineH + padding/2
	if band < minBandHeight {
		band = minBandHeight
	}
	top := FrameHeight - band
	draw.Draw(dst, image.Rect(0, top, FrameWidth, FrameHeight), image.NewUniform(bandColor), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(stampColor), Face: stampFace}
	y := top + padding/2 + stampFace.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(padding, y)
	d.DrawString(stamp)

	d.Face = locFace
	d.Src = image.NewUniform(locationColor)
	y += stampFace.Metrics().Descent.Ceil()
	for _, ln := range lines {
		y += lineH
		d.Dot = fixed.P(padding, y)
		d.DrawString(ln)
	}
	return dst, band, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fitRect scales src into dst keeping the aspect ratio, centered.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	w, h := dst.Dx(), dst.Dy()
	if sw*h > sh*w {
		h = sh * w / sw
	} else {
		w = sw * h / sh
	}
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// wrapText breaks text into lines no wider than maxWidth. Words that do not fit on
// a line of their own are split by rune.
func wrapText(face font.Face, text string, maxWidth int) []string {
	limit := fixed.I(maxWidth)
	var lines []string
	cur := ""
	for _, word := range strings.Fields(text) {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if font.MeasureString(face, next) <= limit {
			cur = next
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		for font.MeasureString(face, word) > limit {
			cut := splitAt(face, word, limit)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// splitAt returns the byte offset of the longest rune prefix of s that fits limit.
func splitAt(face font.Face, s string, limit fixed.Int26_6) int {
	cut := 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		end := i + size
		if font.MeasureString(face, s[:end]) > limit {
			break
		}
		cut = end
		i = end
	}
	if cut == 0 && s != "" {
		// a single glyph wider than the line still has to make progress
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

func ellipsize(face font.Face, s string, maxWidth int) string {
	limit := fixed.I(maxWidth)
	runes := []rune(s)
	for len(runes) > 0 && font.MeasureString(face, string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
