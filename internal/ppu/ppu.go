// Package ppu implements the mode FSM, OAM scan, per-scanline pixel
// pipeline, DMG/CGB palettes, VRAM banking, and the OAM-DMA/HDMA block
// transfer engines described in spec.md §4.4.
package ppu

// InterruptRequester lets the PPU raise IF bits (0: VBlank, 1: STAT)
// without depending on the bus package.
type InterruptRequester func(bit int)

// Variant selects DMG vs CGB pixel-pipeline behavior: palette
// resolution, VRAM banking, sprite-priority rule, and DMA surface. The
// pipeline itself is shared (design note §9 "PPU polymorphism").
type Variant int

const (
	DMG Variant = iota
	CGB
)

const (
	ScreenW = 160
	ScreenH = 144

	dotsPerLine  = 456
	linesPerVisb = 144
	linesTotal   = 154
)

// RGB is a 24-bit color sample.
type RGB struct{ R, G, B uint8 }

type PPU struct {
	variant Variant

	vram [2][0x2000]byte // bank 0 (and bank 1 on CGB) 0x8000-0x9FFF
	oam  [0xA0]byte      // 0xFE00-0xFE9F

	vramBank int // CGB: 0 or 1, selected via FF4F

	lcdc byte
	stat byte // bits0-1 mode, bit2 coincidence, bits3-6 enables
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	// CGB palette memory: 8 palettes x 4 colors x 2 bytes (RGB555)
	bgPalRAM  [64]byte
	objPalRAM [64]byte
	bgPalIdx  byte // FF68: bit7 auto-inc, bits0-5 address
	objPalIdx byte // FF6A

	dot int // 0..455 within current line
	// ly153Quirk: line 153 reads LY=153 for only the first 4 dots
	ly153Early bool

	statLine bool // level of the OR'd STAT condition, for rising-edge detection

	frame []RGB // ScreenW*ScreenH, written line by line as each scanline renders

	windowLineCounter int // internal window line counter, only advances on drawn lines

	lineSprites []spriteEntry // sprites selected for the current line by scanOAM

	req InterruptRequester

	// OAM-DMA
	dmaActive   bool
	dmaSrcHi    byte
	dmaCycle    int
	dmaReadFn   func(addr uint16) byte

	// HDMA/GDMA (CGB)
	hdmaSrc       uint16
	hdmaDst       uint16
	hdmaLen       int  // bytes left to copy; -1 when no transfer has been set up or after a GDMA
	hdmaActive    bool
	hdmaHBlankMode bool
	hdmaReadFn    func(addr uint16) byte

	hblankEdge bool // true on the dot HBlank (mode 0) begins, consumed by bus for HDMA stepping

	compatPalette int // DMG-on-CGB boot compatibility palette id, set externally

	useFetcher bool // DMG-only: render BG/window via the fetcher/FIFO path

	lineRegs [linesTotal]LineRegisters // per-line register snapshot captured when the line begins (mode 2 entry)
}

// LineRegisters is a snapshot of a few per-line derived values, captured
// when a visible line begins (mode 2 entry), before renderScanline runs
// for it. Exposed for tests.
type LineRegisters struct {
	WinLine byte
}

// LineRegs returns the captured snapshot for line y (0..153).
func (p *PPU) LineRegs(y int) LineRegisters {
	if y < 0 || y >= linesTotal {
		return LineRegisters{}
	}
	return p.lineRegs[y]
}

// New builds a DMG-variant PPU. req may be nil in tests that don't
// care about interrupt delivery.
func New(req InterruptRequester) *PPU {
	return newVariant(DMG, req)
}

// NewVariant builds a PPU for the given hardware variant (DMG or CGB).
func NewVariant(variant Variant, req InterruptRequester) *PPU {
	return newVariant(variant, req)
}

func newVariant(variant Variant, req InterruptRequester) *PPU {
	if req == nil {
		req = func(int) {}
	}
	p := &PPU{variant: variant, req: req, hdmaLen: -1}
	p.frame = make([]RGB, ScreenW*ScreenH)
	return p
}

// SetMemReader installs the bus-level Read used to source OAM-DMA and
// HDMA bytes (ROM/WRAM/etc — outside the PPU's own VRAM/OAM).
func (p *PPU) SetMemReader(f func(addr uint16) byte) {
	p.dmaReadFn = f
	p.hdmaReadFn = f
}

func (p *PPU) Mode() byte { return p.stat & 0x03 }
func (p *PPU) LY() byte   { return p.ly }

func (p *PPU) Framebuffer() []RGB { return p.frame }

// SetCompatPalette selects the built-in colorization palette used when
// a DMG-only cartridge boots on a CGB unit (emu package wires this from
// its title-based heuristic table).
func (p *PPU) SetCompatPalette(id int) { p.compatPalette = id }
