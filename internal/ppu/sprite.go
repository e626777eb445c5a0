package ppu

// Sprite is a resolved OAM entry ready for per-line composition. X/Y
// are already translated to screen space (OAM raw values minus the
// 8/16 hardware offset), as lineSpritesAsSprites builds them from the
// raw entries scanOAM stores in lineSprites.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
	Bank     int // CGB VRAM bank (0 or 1)
	Height   int // 8 or 16
}

type spriteEntry struct {
	y, x, tile, flags byte
	oamIndex          int
}

func (p *PPU) spriteHeight() int {
	if p.lcdc&lcdcObjSize != 0 {
		return 16
	}
	return 8
}

// scanOAM selects (≤10) sprites intersecting the current line, kept in
// OAM order. CGB resolves overlap priority purely by OAM order; DMG
// additionally prefers the lower X coordinate, with ties broken by OAM
// order (both handled in ComposeSpriteLine).
func (p *PPU) scanOAM() {
	p.lineSprites = p.lineSprites[:0]
	h := p.spriteHeight()
	for i := 0; i < 40 && len(p.lineSprites) < 10; i++ {
		base := i * 4
		y := int(p.oam[base]) - 16
		if int(p.ly) < y || int(p.ly) >= y+h {
			continue
		}
		p.lineSprites = append(p.lineSprites, spriteEntry{
			y:        p.oam[base],
			x:        p.oam[base+1],
			tile:     p.oam[base+2],
			flags:    p.oam[base+3],
			oamIndex: i,
		})
	}
}

func (p *PPU) spriteCountThisLine() int { return len(p.lineSprites) }

func (p *PPU) lineSpritesAsSprites() []Sprite {
	h := p.spriteHeight()
	out := make([]Sprite, len(p.lineSprites))
	for i, s := range p.lineSprites {
		bank := 0
		if p.variant == CGB && s.flags&0x08 != 0 {
			bank = 1
		}
		out[i] = Sprite{
			X: int(s.x) - 8, Y: int(s.y) - 16,
			Tile: s.tile, Attr: s.flags, OAMIndex: s.oamIndex,
			Bank: bank, Height: h,
		}
	}
	return out
}

// ComposeSpriteLine draws every candidate sprite intersecting line ly
// into a 160-wide color-index row, applying transparency (index 0),
// BG-priority (Attr bit 7), and overlap priority: CGB orders strictly
// by OAMIndex; DMG prefers the lowest X, ties broken by OAMIndex.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgColorIdx [160]byte, cgbPriority bool) [160]byte {
	var out [160]byte
	ordered := make([]Sprite, len(sprites))
	copy(ordered, sprites)

	// Sort so the highest-priority sprite is drawn LAST (ends up on top).
	less := func(i, j int) bool {
		if cgbPriority {
			return ordered[i].OAMIndex > ordered[j].OAMIndex
		}
		if ordered[i].X != ordered[j].X {
			return ordered[i].X > ordered[j].X
		}
		return ordered[i].OAMIndex > ordered[j].OAMIndex
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	for _, s := range ordered {
		h := s.Height
		if h == 0 {
			h = 8
		}
		row := int(ly) - s.Y
		if row < 0 || row >= h {
			continue
		}
		if s.Attr&0x40 != 0 {
			row = h - 1 - row
		}
		tile := s.Tile
		if h == 16 {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}
		base := uint16(0x8000) + uint16(tile)*16 + uint16(row*2)
		if s.Bank == 1 {
			base += 0x2000 // caller's VRAMReader maps bank 1 at +0x2000 offset internally
		}
		lo := mem.Read(base)
		hi := mem.Read(base + 1)
		behind := s.Attr&0x80 != 0

		for sx := 0; sx < 8; sx++ {
			px := s.X + sx
			if px < 0 || px >= 160 {
				continue
			}
			col := sx
			if s.Attr&0x20 != 0 {
				col = 7 - sx
			}
			bit := 7 - col
			ci := ((hi>>bit)&1)<<1 | (lo>>bit)&1
			if ci == 0 {
				continue
			}
			if behind && bgColorIdx[px] != 0 {
				continue
			}
			out[px] = ci
		}
	}
	return out
}
