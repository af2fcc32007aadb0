package receipt

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Shiro005/electionapp-sub000/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// WidthUnits is the logical receipt width matching 58mm paper.
	WidthUnits = 230
	// Density is the rasterization scale; receipts are captured at 2x so
	// small Devanagari glyphs stay legible on a 203dpi head.
	Density = 2
	// PixelWidth is the bitmap width handed to the encoder.
	PixelWidth = WidthUnits * Density

	baseFontSize = 11.0

	// fontSettleDelay gives the face cache a beat after the first load
	// before the first capture, mirroring the original renderer.
	fontSettleDelay = 50 * time.Millisecond
)

// Renderer rasterizes receipt documents. The Devanagari face is loaded
// once per process; concurrent renders share it.
type Renderer struct {
	fontPath string
	clock    clockwork.Clock
	log      zerolog.Logger

	fontOnce sync.Once
	face     font.Face
	loadErr  error
}

// NewRenderer builds a renderer that loads the face at fontPath on first
// use. An empty or unreadable path falls back to the embedded Go face,
// which keeps dev machines and tests working without a Devanagari font
// installed.
func NewRenderer(fontPath string, clock clockwork.Clock, log zerolog.Logger) *Renderer {
	return &Renderer{
		fontPath: fontPath,
		clock:    clock,
		log:      log.With().Str("component", "renderer").Logger(),
	}
}

// Render lays out and rasterizes one receipt. Voter fields are expected to
// be translated already; this package only escapes and draws them.
func (r *Renderer) Render(familyMode bool, head model.VoterRecord, roster model.FamilyRoster, branding model.CandidateBranding) (*image.RGBA, error) {
	var doc Document
	if familyMode {
		doc = BuildFamily(head, roster, branding)
	} else {
		doc = BuildSingle(head, branding)
	}
	return r.Rasterize(doc)
}

// ensureFont loads the receipt face exactly once per process.
func (r *Renderer) ensureFont() (font.Face, error) {
	r.fontOnce.Do(func() {
		data := goregular.TTF
		if r.fontPath != "" {
			loaded, err := os.ReadFile(r.fontPath)
			if err != nil {
				r.log.Warn().Err(err).Str("path", r.fontPath).
					Msg("receipt font unreadable, using embedded face")
			} else {
				data = loaded
			}
		}

		parsed, err := opentype.Parse(data)
		if err != nil {
			r.loadErr = fmt.Errorf("receipt: parse font: %w", err)
			return
		}
		r.face, r.loadErr = opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    baseFontSize * Density,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if r.loadErr == nil {
			r.clock.Sleep(fontSettleDelay)
		}
	})
	return r.face, r.loadErr
}

// drawOp is one laid-out element: a text line or a horizontal rule.
type drawOp struct {
	text     string
	centered bool
	rule     bool
	y        int
}

// Rasterize paints the document onto a white PixelWidth-wide bitmap.
func (r *Renderer) Rasterize(doc Document) (*image.RGBA, error) {
	face, err := r.ensureFont()
	if err != nil {
		return nil, err
	}

	const margin = 6 * Density
	maxTextWidth := PixelWidth - 2*margin
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + 2
	ascent := metrics.Ascent.Ceil()

	var ops []drawOp
	y := margin

	text := func(s string, centered bool) {
		for _, line := range wrap(face, s, maxTextWidth) {
			ops = append(ops, drawOp{text: line, centered: centered, y: y + ascent})
			y += lineHeight
		}
	}
	rule := func() {
		ops = append(ops, drawOp{rule: true, y: y})
		y += Density + 4
	}

	for _, line := range doc.Header {
		text(line, true)
	}
	rule()
	if doc.SubHeader != "" {
		text(doc.SubHeader, true)
	}
	for _, block := range doc.Blocks {
		if block.Bordered {
			rule()
		}
		if block.Number != "" {
			text(block.Number, false)
		}
		for _, field := range block.Fields {
			text(field.Label+": "+field.Value, false)
		}
		if block.Bordered {
			rule()
		}
	}
	text(doc.Appeal, true)
	text(doc.Footer, true)
	y += margin

	img := image.NewRGBA(image.Rect(0, 0, PixelWidth, y))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	black := image.NewUniform(color.Black)
	for _, op := range ops {
		if op.rule {
			draw.Draw(img, image.Rect(margin, op.y, PixelWidth-margin, op.y+Density), black, image.Point{}, draw.Src)
			continue
		}
		x := margin
		if op.centered {
			width := font.MeasureString(face, op.text).Ceil()
			if width < maxTextWidth {
				x = (PixelWidth - width) / 2
			}
		}
		drawer := &font.Drawer{
			Dst:  img,
			Src:  black,
			Face: face,
			Dot:  fixed.P(x, op.y),
		}
		drawer.DrawString(op.text)
	}

	r.log.Debug().Int("width", PixelWidth).Int("height", y).
		Bool("family", doc.FamilyMode).Msg("receipt rasterized")
	return img, nil
}

// wrap splits s into lines that fit maxWidth, breaking on spaces and
// falling back to hard breaks for unbroken runs wider than the paper.
func wrap(face font.Face, s string, maxWidth int) []string {
	if s == "" {
		return []string{""}
	}
	if font.MeasureString(face, s).Ceil() <= maxWidth {
		return []string{s}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(s) {
		candidate := word
		if current.Len() > 0 {
			candidate = current.String() + " " + word
		}
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current.Reset()
			current.WriteString(candidate)
			continue
		}
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		for font.MeasureString(face, word).Ceil() > maxWidth {
			runes := []rune(word)
			cut := len(runes)
			for cut > 1 && font.MeasureString(face, string(runes[:cut])).Ceil() > maxWidth {
				cut--
			}
			lines = append(lines, string(runes[:cut]))
			word = string(runes[cut:])
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
