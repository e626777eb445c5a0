package ppu

// dmgShades are the 4 built-in greenish-gray shades used when no CGB
// compatibility palette has been selected.
var dmgShades = [4]RGB{
	{224, 248, 208},
	{136, 192, 112},
	{52, 104, 86},
	{8, 24, 32},
}

// rgb555to888 converts a 5-bit-per-channel CGB color to 8-bit-per-
// channel, matching the hardware's linear `raw*255/31` scaling rather
// than a bit-replication trick.
func rgb555to888(lo, hi byte) RGB {
	v := uint16(lo) | uint16(hi)<<8
	r := uint8(uint32(v&0x1F) * 255 / 31)
	g := uint8(uint32((v>>5)&0x1F) * 255 / 31)
	b := uint8(uint32((v>>10)&0x1F) * 255 / 31)
	return RGB{r, g, b}
}

func dmgShadeFor(palReg byte, colorIdx byte) RGB {
	shade := (palReg >> (colorIdx * 2)) & 0x03
	return dmgShades[shade]
}

func (p *PPU) bgColor(colorIdx byte, cgbPalIdx byte) RGB {
	if p.variant == CGB {
		off := int(cgbPalIdx)*8 + int(colorIdx)*2
		return rgb555to888(p.bgPalRAM[off], p.bgPalRAM[off+1])
	}
	if p.compatPalette != 0 {
		return compatPaletteShade(p.compatPalette, false, colorIdx)
	}
	return dmgShadeFor(p.bgp, colorIdx)
}

func (p *PPU) objColor(colorIdx byte, cgbPalIdx byte, dmgUseObp1 bool) RGB {
	if p.variant == CGB {
		off := int(cgbPalIdx)*8 + int(colorIdx)*2
		return rgb555to888(p.objPalRAM[off], p.objPalRAM[off+1])
	}
	if p.compatPalette != 0 {
		return compatPaletteShade(p.compatPalette, true, colorIdx)
	}
	reg := p.obp0
	if dmgUseObp1 {
		reg = p.obp1
	}
	return dmgShadeFor(reg, colorIdx)
}

// compatPaletteShade implements a small built-in set of colorization
// palettes for DMG carts booted on CGB hardware, selected by id via
// SetCompatPalette (the emu package resolves titles to ids).
func compatPaletteShade(id int, obj bool, colorIdx byte) RGB {
	sets := [][4]RGB{
		{{255, 255, 255}, {140, 220, 100}, {50, 140, 60}, {10, 40, 20}},   // 0 green
		{{255, 240, 200}, {220, 170, 110}, {140, 90, 50}, {60, 30, 10}},   // 1 sepia
		{{220, 240, 255}, {120, 170, 240}, {60, 90, 180}, {10, 20, 60}},   // 2 blue
		{{255, 220, 210}, {230, 120, 100}, {160, 50, 40}, {60, 10, 10}},   // 3 red
		{{255, 240, 250}, {230, 180, 220}, {170, 110, 170}, {70, 40, 80}}, // 4 pastel
	}
	s := sets[id%len(sets)]
	_ = obj
	return s[colorIdx&0x03]
}
