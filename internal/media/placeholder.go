// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package media

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"ewed/internal/slug"
)

// placeholderTile is the size the initials are drawn at before scaling.
const placeholderTile = 32

// Placeholder draws a square PNG portrait for name: a background colour
// derived from the name with the initials in the middle. The output depends
// only on name and size.
func Placeholder(name string, size int) ([]byte, error) {
	if size < placeholderTile {
		size = placeholderTile
	}

	bg := colorFor(name)
	tile := image.NewRGBA(image.Rect(0, 0, placeholderTile, placeholderTile))
	draw.Draw(tile, tile.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	text := initials(name)
	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(contrast(bg)),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	x := (placeholderTile - width) / 2
	y := (placeholderTile + face.Ascent - face.Descent) / 2
	d.Dot = fixed.P(x, y)
	d.DrawString(text)

	// Nearest neighbour keeps the bitmap glyphs crisp.
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), tile, tile.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("media: encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// initials returns up to two uppercase ASCII initials for name, with
// accents folded first.
func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(slug.Fold(name)) {
		for _, r := range word {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// colorFor picks a muted colour from the FNV hash of name.
func colorFor(name string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	sum := h.Sum32()
	return color.RGBA{
		R: 64 + uint8(sum&0x7f),
		G: 64 + uint8((sum>>8)&0x7f),
		B: 64 + uint8((sum>>16)&0x7f),
		A: 0xff,
	}
}

// contrast returns black or white, whichever reads better on bg.
func contrast(bg color.RGBA) color.Color {
	lum := 299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)
	if lum > 128_000 {
		return color.Black
	}
	return color.White
}
