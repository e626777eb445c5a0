// Package emu assembles the CPU, bus, PPU, and APU into a steppable
// Game Boy machine: ROM/boot-ROM loading, CGB/DMG mode detection,
// frame stepping, battery RAM persistence, and the DMG-on-CGB
// compatibility palette heuristic.
package emu

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/tallowgate/gbcore/internal/bus"
	"github.com/tallowgate/gbcore/internal/cart"
	"github.com/tallowgate/gbcore/internal/cpu"
)

// cgbCompatSetNames names the built-in colorization palettes indexed by
// the ids compat_tables.go's heuristic resolves to; ppu.compatPaletteShade
// implements the matching RGB sets in the same order.
var cgbCompatSetNames = []string{"Green", "Sepia", "Blue", "Red", "Pastel"}

// Buttons is the instantaneous state of all eight physical inputs.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.Right {
		m |= bus.JoypRight
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	return m
}

// Machine wires a CPU, Bus, and their peripherals into a runnable
// Game Boy, stepped one frame at a time by the host.
type Machine struct {
	cfg Config

	bus *bus.Bus
	cpu *cpu.CPU

	romPath string
	header  *cart.Header
	bootROM []byte
	cgb     bool // cartridge/header declares CGB support and core runs CGB-native
	useCGB  bool // host-facing flag: whether the PPU is currently producing CGB-mode color

	compatPaletteID int

	fb []byte // RGBA 160x144x4

	// maxStepsPerFrame bounds StepFrame's instruction loop so a
	// disabled LCD (which never produces a VBlank edge) can't spin
	// forever; one real frame retires well under this many instructions.
	maxStepsPerFrame int
}

// New constructs an unloaded Machine; call LoadCartridge or
// LoadROMFromFile before stepping.
func New(cfg Config) *Machine {
	return &Machine{
		cfg:              cfg,
		fb:               make([]byte, 160*144*4),
		maxStepsPerFrame: 300000,
	}
}

// SetBootROM stages a boot ROM image to be mapped in on the next
// cartridge load (DMG: 256 bytes; CGB: 2304 bytes).
func (m *Machine) SetBootROM(data []byte) {
	m.bootROM = append([]byte(nil), data...)
}

// LoadCartridge wires a fresh Bus/CPU around rom and boot, detecting
// CGB support from the header and resetting to post-boot state when no
// boot ROM is supplied.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	c, h, err := cart.NewCartridge(rom)
	if err != nil {
		return err
	}
	m.header = h
	m.cgb = h.IsCGB()
	m.useCGB = m.cgb

	m.bus = bus.NewWithCartridge(c, m.cgb)

	if len(boot) > 0 {
		m.bootROM = append([]byte(nil), boot...)
	}
	if len(m.bootROM) >= 0x100 {
		m.bus.SetBootROM(m.bootROM)
	}

	m.cpu = cpu.New(m.bus)
	if len(m.bootROM) >= 0x100 {
		m.cpu.SetPC(0x0000)
	} else {
		m.ResetPostBoot()
	}

	if pid, ok := autoCompatPaletteFromHeader(h); ok && !m.cgb {
		m.compatPaletteID = pid
	}
	m.bus.PPU().SetCompatPalette(m.compatPaletteID)
	m.bus.PPU().SetUseFetcher(m.cfg.UseFetcherBG)
	return nil
}

// LoadROMFromFile reads rom from disk and loads it, recording the path
// for ROMPath/ROMTitle and per-ROM UI preferences (compat palette,
// save file naming).
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data, m.bootROM); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ResetPostBoot sets CPU/IO registers to typical DMG post-boot values,
// bypassing the boot ROM (used when no boot ROM image is available).
func (m *Machine) ResetPostBoot() {
	if m.cpu == nil {
		return
	}
	m.cpu.ResetNoBoot()
	m.cpu.SetPC(0x0100)
	b := m.bus
	b.Write(0xFF00, 0xCF)
	b.Write(0xFF05, 0x00)
	b.Write(0xFF06, 0x00)
	b.Write(0xFF07, 0xF8)
	b.Write(0xFF40, 0x91)
	b.Write(0xFF42, 0x00)
	b.Write(0xFF43, 0x00)
	b.Write(0xFF45, 0x00)
	b.Write(0xFF47, 0xFC)
	b.Write(0xFF48, 0xFF)
	b.Write(0xFF49, 0xFF)
	b.Write(0xFF4A, 0x00)
	b.Write(0xFF4B, 0x00)
	b.Write(0xFFFF, 0x00)
}

// ResetWithBoot restarts execution from the boot ROM at 0x0000 if one
// is staged, falling back to ResetPostBoot otherwise.
func (m *Machine) ResetWithBoot() {
	if m.cpu == nil {
		return
	}
	if len(m.bootROM) >= 0x100 {
		m.bus.SetBootROM(m.bootROM)
		m.cpu.SetPC(0x0000)
		m.cpu.SP = 0xFFFE
		m.cpu.IME = false
		return
	}
	m.ResetPostBoot()
}

// ResetCGBPostBoot restarts to post-boot state with the host's color
// preference applied, used by the "toggle colorization" menu action.
func (m *Machine) ResetCGBPostBoot(colorize bool) {
	m.useCGB = colorize
	m.ResetPostBoot()
}

func (m *Machine) SetUseCGBBG(v bool) { m.useCGB = v }
func (m *Machine) UseCGBBG() bool     { return m.useCGB }

// WantCGBColors reports whether the running cartridge is eligible for
// (and currently using) CGB-mode color output.
func (m *Machine) WantCGBColors() bool { return m.useCGB }

// IsCGBCompat reports whether the loaded cartridge is a DMG-only title
// running through the colorization palette, as opposed to a cartridge
// with its own CGB-native palette data.
func (m *Machine) IsCGBCompat() bool {
	return m.header != nil && !m.header.IsCGB()
}

func (m *Machine) SetCompatPalette(id int) {
	n := len(cgbCompatSetNames)
	m.compatPaletteID = ((id % n) + n) % n
	if m.bus != nil {
		m.bus.PPU().SetCompatPalette(m.compatPaletteID)
	}
}

func (m *Machine) CycleCompatPalette(delta int) {
	m.SetCompatPalette(m.compatPaletteID + delta)
}

func (m *Machine) CurrentCompatPalette() int { return m.compatPaletteID }

func (m *Machine) CompatPaletteName(id int) string {
	if id < 0 || id >= len(cgbCompatSetNames) {
		return "Unknown"
	}
	return cgbCompatSetNames[id]
}

func (m *Machine) SetUseFetcherBG(v bool) {
	m.cfg.UseFetcherBG = v
	if m.bus != nil {
		m.bus.PPU().SetUseFetcher(v)
	}
}

func (m *Machine) ROMPath() string { return m.romPath }

func (m *Machine) ROMTitle() string {
	if m.header == nil {
		return ""
	}
	return strings.TrimRight(m.header.Title, "\x00")
}

func (m *Machine) SetButtons(b Buttons) {
	if m.bus == nil {
		return
	}
	m.bus.SetJoypadState(b.mask())
}

// SetSerialWriter installs the sink that receives outbound serial
// bytes, used by headless test-ROM runners to read pass/fail output.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// LoadBattery restores external RAM from a previously saved .sav image.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.bus == nil {
		return false
	}
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		bb.LoadRAM(data)
		return true
	}
	return false
}

// SaveBattery returns the cartridge's external RAM image for
// persistence, or ok=false when the cartridge has none.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.bus == nil {
		return nil, false
	}
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		data := bb.SaveRAM()
		return data, data != nil
	}
	return nil, false
}

// SaveStateToFile and LoadStateFromFile are intentionally unsupported:
// save-state serialization is out of scope for this core (see
// DESIGN.md). The methods exist so the UI's save/load slot bindings
// still compile and fail loudly instead of silently doing nothing.
func (m *Machine) SaveStateToFile(path string) error {
	return errors.New("save states are not supported")
}

func (m *Machine) LoadStateFromFile(path string) error {
	return errors.New("save states are not supported")
}

// StepFrame runs the CPU until one PPU frame (a VBlank rising edge)
// completes, then refreshes the RGBA framebuffer.
func (m *Machine) StepFrame() {
	m.stepFrame(true)
}

// StepFrameNoRender is StepFrame without the framebuffer conversion,
// for headless test-ROM runners that only care about serial output.
func (m *Machine) StepFrameNoRender() {
	m.stepFrame(false)
}

func (m *Machine) stepFrame(render bool) {
	if m.cpu == nil || m.bus == nil {
		return
	}
	p := m.bus.PPU()
	prevLY := p.LY()
	for i := 0; i < m.maxStepsPerFrame; i++ {
		m.cpu.Step()
		ly := p.LY()
		if ly == 144 && prevLY != 144 {
			break
		}
		prevLY = ly
	}
	if render {
		m.blit()
	}
}

func (m *Machine) blit() {
	if m.bus == nil {
		return
	}
	src := m.bus.PPU().Framebuffer()
	for i, c := range src {
		o := i * 4
		m.fb[o+0] = c.R
		m.fb[o+1] = c.G
		m.fb[o+2] = c.B
		m.fb[o+3] = 0xFF
	}
}

// Framebuffer returns the current RGBA 160x144x4 pixel buffer.
func (m *Machine) Framebuffer() []byte { return m.fb }

// APUBufferedStereo reports how many interleaved stereo sample frames
// are currently queued for playback.
func (m *Machine) APUBufferedStereo() int {
	if m.bus == nil {
		return 0
	}
	return m.bus.APU().StereoAvailable()
}

// APUPullStereo drains up to max interleaved [L,R,L,R,...] int16 sample
// frames from the APU's ring buffer.
func (m *Machine) APUPullStereo(max int) []int16 {
	if m.bus == nil {
		return nil
	}
	return m.bus.APU().PullStereo(max)
}

// APUClearAudioLatency drops any buffered audio, used when (un)pausing
// or toggling fast-forward to avoid stale playback catching up slowly.
func (m *Machine) APUClearAudioLatency() {
	if m.bus == nil {
		return
	}
	for m.bus.APU().StereoAvailable() > 0 {
		if len(m.bus.APU().PullStereo(4096)) == 0 {
			break
		}
	}
}

// APUCapBufferedStereo trims the buffered sample count down to max,
// used entering fast-forward so audio doesn't lag behind video.
func (m *Machine) APUCapBufferedStereo(max int) {
	if m.bus == nil {
		return
	}
	for m.bus.APU().StereoAvailable() > max {
		if len(m.bus.APU().PullStereo(1024)) == 0 {
			break
		}
	}
}
