package ppu

// VRAMBankReader reads a byte from a specific VRAM bank, used by the
// CGB scanline helpers below (analogous to VRAMReader for DMG).
type VRAMBankReader interface {
	ReadBank(bank int, addr uint16) byte
}

// decodeCGBAttr extracts palette/flip/priority from a BG map attribute
// byte (bank 1, same map address as the tile index in bank 0).
func decodeCGBAttr(attr byte) (bank int, xflip, yflip, priority bool, pal byte) {
	bank = 0
	if attr&0x08 != 0 {
		bank = 1
	}
	xflip = attr&0x20 != 0
	yflip = attr&0x40 != 0
	priority = attr&0x80 != 0
	pal = attr & 0x07
	return
}

// RenderBGScanlineCGB renders one BG scanline's color indices, CGB
// palette ids, and BG-to-OBJ priority bits, resolving per-tile
// attributes from the bank-1 attribute map.
func RenderBGScanlineCGB(mem VRAMBankReader, mapBase, attrMapBase uint16, tileData8000 bool, scx, scy, ly byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31

	for x := 0; x < 160; x++ {
		bgX := (uint16(x) + uint16(scx)) & 0xFF
		tileCol := (bgX >> 3) & 31
		fineX := byte(bgX & 7)

		off := mapY*32 + tileCol
		tileNum := mem.ReadBank(0, mapBase+off)
		attr := mem.ReadBank(1, attrMapBase+off)
		bank, xflip, yflip, priority, p := decodeCGBAttr(attr)

		row := fineY
		if yflip {
			row = 7 - row
		}
		col := fineX
		if xflip {
			col = 7 - col
		}

		var base uint16
		if tileData8000 {
			base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
		} else {
			base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
		}
		lo := mem.ReadBank(bank, base)
		hi := mem.ReadBank(bank, base+1)
		bit := 7 - col
		ci[x] = ((hi>>bit)&1)<<1 | (lo>>bit)&1
		pal[x] = p
		pri[x] = priority
	}
	return
}

// RenderWindowScanlineCGB is the window-layer counterpart of
// RenderBGScanlineCGB; pixels before wxStart are left zeroed.
func RenderWindowScanlineCGB(mem VRAMBankReader, mapBase, attrMapBase uint16, tileData8000 bool, wxStart int, winLine byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	if wxStart >= 160 {
		return
	}
	if wxStart < 0 {
		wxStart = 0
	}
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7

	for x := wxStart; x < 160; x++ {
		winX := uint16(x - wxStart)
		tileCol := (winX >> 3) & 31
		fineX := byte(winX & 7)

		off := mapY*32 + tileCol
		tileNum := mem.ReadBank(0, mapBase+off)
		attr := mem.ReadBank(1, attrMapBase+off)
		bank, xflip, yflip, priority, p := decodeCGBAttr(attr)

		row := fineY
		if yflip {
			row = 7 - row
		}
		col := fineX
		if xflip {
			col = 7 - col
		}

		var base uint16
		if tileData8000 {
			base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
		} else {
			base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
		}
		lo := mem.ReadBank(bank, base)
		hi := mem.ReadBank(bank, base+1)
		bit := 7 - col
		ci[x] = ((hi>>bit)&1)<<1 | (lo>>bit)&1
		pal[x] = p
		pri[x] = priority
	}
	return
}
