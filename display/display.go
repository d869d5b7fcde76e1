// Package display implements the monochrome framebuffer and its sprite
// compositor.
package display

import (
	"iter"
	"strings"
)

const (
	WIDTH  = 64 // Pixels per row.
	HEIGHT = 32 // Rows.

	SPRITE_WIDTH = 8 // Pixels per sprite row, MSB leftmost.
)

// Display is a WIDTH x HEIGHT grid of pixels, row-major.
type Display struct {
	pixel [HEIGHT][WIDTH]bool

	Dirty bool // Set on any change, cleared by the renderer.
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	d.pixel = [HEIGHT][WIDTH]bool{}
	d.Dirty = true
}

// Pixel returns the state of the pixel at (x, y), wrapping both coordinates.
func (d *Display) Pixel(x, y int) bool {
	return d.pixel[mod(y, HEIGHT)][mod(x, WIDTH)]
}

// Blit XORs a sprite onto the display with its top-left corner at (x, y).
//
// Each byte of sprite is one 8 pixel row. Pixels that fall off an edge wrap to
// the opposite edge. The result is true when at least one set sprite bit lands
// on a pixel that was already lit.
func (d *Display) Blit(x, y int, sprite []byte) (collided bool) {
	for row, bits := range sprite {
		py := mod(y+row, HEIGHT)
		for col := range SPRITE_WIDTH {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := mod(x+col, WIDTH)
			if d.pixel[py][px] {
				collided = true
			}
			d.pixel[py][px] = !d.pixel[py][px]
		}
	}

	if len(sprite) > 0 {
		d.Dirty = true
	}

	return
}

// Snapshot returns a copy of the pixel grid.
func (d *Display) Snapshot() (grid [HEIGHT][WIDTH]bool) {
	return d.pixel
}

// Rows iterates over the rows of the display, top to bottom.
func (d *Display) Rows() iter.Seq2[int, [WIDTH]bool] {
	return func(yield func(y int, row [WIDTH]bool) bool) {
		for y := range HEIGHT {
			if !yield(y, d.pixel[y]) {
				return
			}
		}
	}
}

// Lit returns the number of pixels that are on.
func (d *Display) Lit() (count int) {
	for _, row := range d.Rows() {
		for _, on := range row {
			if on {
				count++
			}
		}
	}
	return
}

// String renders the display as text, '#' for lit and '.' for dark pixels.
func (d *Display) String() string {
	var sb strings.Builder
	sb.Grow(HEIGHT * (WIDTH + 1))
	for _, row := range d.Rows() {
		for _, on := range row {
			if on {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func mod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}
