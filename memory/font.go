package memory

const (
	FONT_START = 0x000 // Address of the first glyph.
	GLYPH_SIZE = 5     // Bytes per glyph.
)

// FONT holds the hexadecimal digit glyphs 0-F, 4 pixels wide and 5 rows tall.
var FONT = [16 * GLYPH_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// GlyphAddress returns the address of the glyph for the low nibble of digit.
func GlyphAddress(digit uint8) uint16 {
	return FONT_START + uint16(digit&0xf)*GLYPH_SIZE
}

// LoadFont installs the glyph table at FONT_START.
func (mem *Memory) LoadFont() {
	copy(mem.data[FONT_START:], FONT[:])
}
