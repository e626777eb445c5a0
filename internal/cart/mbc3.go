package cart

import "encoding/binary"

// MBC3 banks up to 2 MiB of ROM and 32 KiB of RAM, and optionally
// drives a real-time clock. RTC registers are indices 0-4: seconds,
// minutes, hours, days-low, days-high (bit0 day-carry bit8, bit6 halt,
// bit7 day-counter-overflow carry).
//
// The RTC anchor is emulator-relative: the divider below counts
// machine cycles (32 per RTC sub-tick, 32768 sub-ticks per second) the
// way original_source's Rust MBC3 does, rather than anchoring to host
// wall-clock time. This is one of the Open Questions spec.md leaves
// undecided (DESIGN.md records the decision); it keeps RTC behavior
// reproducible independent of host clock skew.
type MBC3 struct {
	rom []byte
	ram []byte

	bankMask byte

	ramEnabled bool
	romBank    byte // 7 bits (0 forced to 1)
	ramBank    byte // 0..3 selects RAM bank, 0x08..0x0C selects an RTC register

	hasTimer bool
	hasRAM   bool

	rtc        [5]byte
	rtcLatched [5]byte
	latchPrev  byte

	clockDivider int // 0..31, one RTC sub-tick per 32 machine cycles
	subTicks     int // 0..32767, one second per 32768 sub-ticks
}

func NewMBC3(rom []byte, ramSize int, hasTimer bool) *MBC3 {
	m := &MBC3{rom: rom, romBank: 1, hasTimer: hasTimer, hasRAM: ramSize > 0}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	banks := len(rom) / 0x4000
	if banks < 1 {
		banks = 1
	}
	m.bankMask = byte(banks - 1)
	return m
}

func (m *MBC3) romByte(off int) byte {
	if off >= 0 && off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romByte(int(addr))
	case addr < 0x8000:
		bank := int(m.romBank & m.bankMask)
		if bank == 0 {
			bank = 1
		}
		return m.romByte(bank*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramBank <= 0x03 {
			if !m.hasRAM {
				return 0xFF
			}
			off := int(m.ramBank)*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				return m.ram[off]
			}
			return 0xFF
		}
		if m.hasTimer && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.rtcLatched[m.ramBank-0x08]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr < 0x6000:
		m.ramBank = value
	case addr < 0x8000:
		if m.hasTimer {
			latch := value & 0x01
			if m.latchPrev == 0 && latch == 1 {
				m.rtcLatched = m.rtc
			}
			m.latchPrev = latch
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.ramBank <= 0x03 {
			if !m.hasRAM {
				return
			}
			off := int(m.ramBank)*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				m.ram[off] = value
			}
			return
		}
		if m.hasTimer && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.rtc[m.ramBank-0x08] = value
		}
	}
}

// Tick advances the RTC divider by one machine cycle.
func (m *MBC3) Tick() {
	if !m.hasTimer || m.rtc[4]&0x40 != 0 { // halted
		return
	}
	m.clockDivider++
	if m.clockDivider < 32 {
		return
	}
	m.clockDivider = 0
	m.subTicks++
	if m.subTicks < 32768 {
		return
	}
	m.subTicks = 0
	m.tickSecond()
}

func (m *MBC3) tickSecond() {
	if m.rtc[0] < 59 {
		m.rtc[0]++
		return
	}
	m.rtc[0] = 0
	if m.rtc[1] < 59 {
		m.rtc[1]++
		return
	}
	m.rtc[1] = 0
	if m.rtc[2] < 23 {
		m.rtc[2]++
		return
	}
	m.rtc[2] = 0
	if m.rtc[3] < 0xFF {
		m.rtc[3]++
		return
	}
	m.rtc[3] = 0
	if m.rtc[4]&0x01 != 0 {
		m.rtc[4] = m.rtc[4]&^0x01 | 0x80 // day carry
	} else {
		m.rtc[4] |= 0x01 // day bit 8
	}
}

func (m *MBC3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

// SaveRTC serializes the 5 live registers plus the sub-second/second
// dividers so a reload resumes counting instead of jumping forward.
func (m *MBC3) SaveRTC() []byte {
	if !m.hasTimer {
		return nil
	}
	out := make([]byte, 5+4)
	copy(out, m.rtc[:])
	binary.LittleEndian.PutUint16(out[5:], uint16(m.clockDivider))
	binary.LittleEndian.PutUint16(out[7:], uint16(m.subTicks))
	return out
}

func (m *MBC3) LoadRTC(data []byte) {
	if !m.hasTimer || len(data) < 9 {
		return
	}
	copy(m.rtc[:], data[:5])
	m.rtcLatched = m.rtc
	m.clockDivider = int(binary.LittleEndian.Uint16(data[5:7]))
	m.subTicks = int(binary.LittleEndian.Uint16(data[7:9]))
}
