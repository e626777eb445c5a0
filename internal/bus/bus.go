// Package bus wires the CPU-visible 16-bit address space to the
// cartridge, PPU, APU, timer, joypad, serial port, WRAM/HRAM, and the
// interrupt registers, and fans out Tick() to every peripheral in the
// order the hardware updates them within a machine cycle.
package bus

import (
	"io"

	"github.com/tallowgate/gbcore/internal/apu"
	"github.com/tallowgate/gbcore/internal/cart"
	"github.com/tallowgate/gbcore/internal/joypad"
	"github.com/tallowgate/gbcore/internal/ppu"
	"github.com/tallowgate/gbcore/internal/serial"
	"github.com/tallowgate/gbcore/internal/timer"
)

// Interrupt bit positions within IE/IF.
const (
	IntVBlank = 0
	IntSTAT   = 1
	IntTimer  = 2
	IntSerial = 3
	IntJoypad = 4
)

// Bus owns every addressable peripheral and implements the full
// memory map from spec.md §4.2.
type Bus struct {
	cart   cart.Cartridge
	ppu    *ppu.PPU
	apu    *apu.APU
	timer  *timer.Timer
	joypad *joypad.Joypad
	serial *serial.Serial

	wram     [8][0x1000]byte // CGB: 8 banks of 4 KiB each, mapped at 0xC000-0xCFFF (bank 0) / 0xD000-0xDFFF (switchable)
	wramBank int             // FF70 bank select for 0xD000-0xDFFF (1-7; 0 reads back as bank 1)

	hram [0x7F]byte

	ie    byte
	ifReg byte

	bootROM     []byte
	bootEnabled bool

	cgb              bool
	doubleSpeed      bool
	speedSwitchArmed bool // FF4D bit0, armed by writing 1, consumed by STOP

	dotAccum   int // dots since the last 4-dot (one M-cycle) boundary, for timer/serial/cart pacing
	speedAccum int // parity counter so PPU/APU advance at real-time rate during double speed
}

// New constructs a DMG Bus, picking the MBC from the ROM header; a ROM
// whose header does not validate is wrapped as a ROM-only cartridge.
func New(rom []byte) *Bus {
	c, _, err := cart.NewCartridge(rom)
	if err != nil {
		c = cart.NewROMOnly(rom, 0)
	}
	return NewWithCartridge(c, false)
}

// NewWithCartridge wires a provided cartridge implementation. cgb
// selects CGB-only registers (VRAM/WRAM banking, HDMA, speed switch,
// palette RAM) and double-speed eligibility.
func NewWithCartridge(c cart.Cartridge, cgb bool) *Bus {
	b := &Bus{cart: c, cgb: cgb, wramBank: 1}
	variant := ppu.DMG
	if cgb {
		variant = ppu.CGB
	}
	b.ppu = ppu.NewVariant(variant, func(bit int) { b.ifReg |= 1 << bit })
	b.ppu.SetMemReader(b.dmaSource)
	b.apu = apu.New(48000)
	b.timer = timer.New()
	b.joypad = joypad.New()
	b.serial = serial.New()
	return b
}

func (b *Bus) PPU() *ppu.PPU        { return b.ppu }
func (b *Bus) APU() *apu.APU        { return b.apu }
func (b *Bus) Cart() cart.Cartridge { return b.cart }
func (b *Bus) IsCGB() bool          { return b.cgb }
func (b *Bus) DoubleSpeed() bool    { return b.doubleSpeed }

// dmaSource is the read function OAM-DMA and HDMA use to source bytes
// from anywhere in the address space; DMA bypasses the VRAM/OAM access
// gating that applies to ordinary CPU reads.
func (b *Bus) dmaSource(addr uint16) byte { return b.Read(addr) }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		if b.cgb && b.bootEnabled && addr >= 0x0200 && addr < 0x0900 && len(b.bootROM) > 0x200 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xCFFF:
		return b.wram[0][addr-0xC000]
	case addr >= 0xD000 && addr <= 0xDFFF:
		return b.wram[b.effectiveWRAMBank()][addr-0xD000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.Read(addr - 0x2000)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.ppu.OAMDMAActive() {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF
	case addr == 0xFF00:
		return b.joypad.Read()
	case addr == 0xFF01:
		return b.serial.SB()
	case addr == 0xFF02:
		return b.serial.SC()
	case addr == 0xFF04:
		return b.timer.DIV()
	case addr == 0xFF05:
		return b.timer.TIMA()
	case addr == 0xFF06:
		return b.timer.TMA()
	case addr == 0xFF07:
		return b.timer.TAC()
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.apu.CPURead(addr)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B, addr == 0xFF4F,
		addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B,
		addr == 0xFF55:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return 0xFF // OAM-DMA source register is write-only in practice
	case addr == 0xFF4D:
		v := byte(0x7E)
		if b.doubleSpeed {
			v |= 0x80
		}
		if b.speedSwitchArmed {
			v |= 0x01
		}
		return v
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFF70:
		if !b.cgb {
			return 0xFF
		}
		return 0xF8 | byte(b.wramBank)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	default:
		return 0xFF
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xCFFF:
		b.wram[0][addr-0xC000] = value
	case addr >= 0xD000 && addr <= 0xDFFF:
		b.wram[b.effectiveWRAMBank()][addr-0xD000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.Write(addr-0x2000, value)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.ppu.OAMDMAActive() {
			return
		}
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// unusable
	case addr == 0xFF00:
		b.joypad.Write(value)
		if b.joypad.Poll() {
			b.ifReg |= 1 << IntJoypad
		}
	case addr == 0xFF01:
		b.serial.WriteSB(value)
	case addr == 0xFF02:
		b.serial.WriteSC(value)
		if value&0x80 != 0 {
			b.ifReg |= 1 << IntSerial
		}
	case addr == 0xFF04:
		b.timer.WriteDIV()
	case addr == 0xFF05:
		b.timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.timer.WriteTMA(value)
	case addr == 0xFF07:
		b.timer.WriteTAC(value)
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.apu.CPUWrite(addr, value)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B, addr == 0xFF4F,
		addr == 0xFF51, addr == 0xFF52, addr == 0xFF53, addr == 0xFF54, addr == 0xFF55,
		addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.ppu.StartOAMDMA(value)
	case addr == 0xFF4D:
		if b.cgb {
			b.speedSwitchArmed = value&0x01 != 0
		}
	case addr == 0xFF50:
		if value != 0 {
			b.bootEnabled = false
		}
	case addr == 0xFF70:
		if b.cgb {
			bank := value & 0x07
			if bank == 0 {
				bank = 1
			}
			b.wramBank = int(bank)
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	}
}

func (b *Bus) effectiveWRAMBank() int {
	if !b.cgb {
		return 1
	}
	return b.wramBank
}

// IE/IF accessors used by the CPU's interrupt dispatch.
func (b *Bus) IE() byte           { return b.ie }
func (b *Bus) IF() byte           { return b.ifReg }
func (b *Bus) SetIF(v byte)       { b.ifReg = v & 0x1F }
func (b *Bus) RequestIRQ(bit int) { b.ifReg |= 1 << bit }

// TriggerSpeedSwitch is invoked by the CPU when executing STOP with
// FF4D bit0 armed; it flips double-speed mode and disarms the latch.
func (b *Bus) TriggerSpeedSwitch() bool {
	if !b.cgb || !b.speedSwitchArmed {
		return false
	}
	b.doubleSpeed = !b.doubleSpeed
	b.speedSwitchArmed = false
	return true
}

// Tick fans out dots (individual 1/4194304s T-states) to every
// peripheral. The timer, serial clock, and cartridge clock run at the
// CPU's own rate (so they speed up under CGB double-speed, matching
// the internal divider's real behavior), while the PPU and APU stay
// pinned to real time and only advance on every other dot while
// double-speed is active, since the screen refresh rate and audio
// sample rate never change with the CPU's clock.
func (b *Bus) Tick(dots int) {
	if dots <= 0 {
		return
	}
	for i := 0; i < dots; i++ {
		b.dotAccum++
		if b.dotAccum == 4 {
			b.dotAccum = 0
			if b.timer.Tick(1) {
				b.ifReg |= 1 << IntTimer
			}
			b.serial.Tick(1)
			b.cart.Tick()
		}

		if !b.doubleSpeed {
			b.ppu.Tick(1)
			b.apu.Tick(1)
			continue
		}
		b.speedAccum++
		if b.speedAccum%2 == 0 {
			b.ppu.Tick(1)
			b.apu.Tick(1)
		}
	}
}

// SetJoypadState is a convenience bulk setter used by host input
// polling; bit layout matches the Joyp* constants below.
func (b *Bus) SetJoypadState(mask byte) {
	b.joypad.SetPressed(joypad.Right, mask&JoypRight != 0)
	b.joypad.SetPressed(joypad.Left, mask&JoypLeft != 0)
	b.joypad.SetPressed(joypad.Up, mask&JoypUp != 0)
	b.joypad.SetPressed(joypad.Down, mask&JoypDown != 0)
	b.joypad.SetPressed(joypad.A, mask&JoypA != 0)
	b.joypad.SetPressed(joypad.B, mask&JoypB != 0)
	b.joypad.SetPressed(joypad.Select, mask&JoypSelectBtn != 0)
	b.joypad.SetPressed(joypad.Start, mask&JoypStart != 0)
	if b.joypad.Poll() {
		b.ifReg |= 1 << IntJoypad
	}
}

// Joypad button bitmasks for SetJoypadState.
const (
	JoypRight     = 1 << 0
	JoypLeft      = 1 << 1
	JoypUp        = 1 << 2
	JoypDown      = 1 << 3
	JoypA         = 1 << 4
	JoypB         = 1 << 5
	JoypSelectBtn = 1 << 6
	JoypStart     = 1 << 7
)

// SetSerialWriter installs the sink that receives outbound serial
// bytes (blargg-style test ROMs report pass/fail this way).
func (b *Bus) SetSerialWriter(w io.Writer) { b.serial.SetSink(w) }

// SetBootROM loads a boot ROM image to overlay low memory until
// disabled via a write to 0xFF50. DMG images are 256 bytes; CGB images
// are 2304 bytes (0x000-0x0FF then 0x200-0x8FF).
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, len(data))
		copy(b.bootROM, data)
		b.bootEnabled = true
	}
}
