package ppu

// Tick advances the PPU by the given number of dots (4 dots per
// M-cycle), driving the mode FSM, OAM-DMA, HDMA, and framebuffer
// rendering. Any dot count may be passed: the mode FSM is stepped one
// dot at a time, and HBlankEdge reports whether mode 0 began anywhere
// within the call.
func (p *PPU) Tick(dots int) {
	p.hblankEdge = false
	p.stepDMA(dots)

	if p.lcdc&lcdcEnable == 0 {
		return
	}

	for i := 0; i < dots; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.dot++

	if p.ly < linesPerVisb {
		switch {
		case p.dot == 80:
			p.setMode(3)
		case p.dot == 80+p.mode3Length():
			p.renderScanline()
			p.setMode(0)
			p.hblankEdge = true
			p.OnHBlankStart()
		}
	}

	if p.dot >= dotsPerLine {
		p.dot = 0
		p.advanceLine()
	}

	p.updateCoincidence()
}

func (p *PPU) advanceLine() {
	if p.ly == linesTotal-1 {
		p.ly = 0
		p.windowLineCounter = 0
	} else {
		p.ly++
	}

	switch {
	case p.ly < linesPerVisb:
		p.setMode(2)
		p.scanOAM()
		p.lineRegs[p.ly] = LineRegisters{WinLine: byte(p.windowLineCounter)}
	case p.ly == linesPerVisb:
		p.setMode(1)
		p.req(0) // VBlank interrupt
		p.snapshotFrame()
	}
}

func (p *PPU) setMode(m byte) {
	p.stat = (p.stat &^ 0x03) | m
	p.updateStatLine()
}

// mode3Length approximates the variable mode-3 duration: the fixed 172
// dots plus the SCX fine-scroll penalty (SCX mod 8), 6 dots when the
// window is visible on the line, and 6 dots per sprite selected for
// the line (a simplified stand-in for the real per-sprite fetch-abort
// penalty).
func (p *PPU) mode3Length() int {
	n := 172 + int(p.scx&0x07)
	if p.windowVisibleThisLine() {
		n += 6
	}
	n += p.spriteCountThisLine() * 6
	return n
}

func (p *PPU) updateCoincidence() {
	if p.reportedLY() == p.lyc {
		p.stat |= statCoincidence
	} else {
		p.stat &^= statCoincidence
	}
	p.updateStatLine()
}

// updateStatLine recomputes the OR'd STAT interrupt condition and
// fires IF bit 1 only on the rising edge, per the Open Question
// decision in SPEC_FULL.md (rising-edge semantics).
func (p *PPU) updateStatLine() {
	cond := false
	if p.stat&statLYCInterrupt != 0 && p.stat&statCoincidence != 0 {
		cond = true
	}
	switch p.Mode() {
	case 0:
		cond = cond || p.stat&statHBlInterrupt != 0
	case 1:
		cond = cond || p.stat&statVBlInterrupt != 0
	case 2:
		cond = cond || p.stat&statOAMInterrupt != 0
	}
	if cond && !p.statLine {
		p.req(1)
	}
	p.statLine = cond
}

// reportedLY exposes the LY=153-quirk-adjusted value for CPU reads:
// real hardware reports LY=0 for all but the first 4 dots of line 153.
func (p *PPU) reportedLY() byte {
	if p.ly == linesTotal-1 && p.dot >= 4 {
		return 0
	}
	return p.ly
}
