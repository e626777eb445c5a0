package cart

import "testing"

func TestMBC3_RTC_LatchAndRead(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0x2000, true)

	m.Write(0x0000, 0x0A) // RAM/RTC enable
	m.rtc[0], m.rtc[1], m.rtc[2], m.rtc[3], m.rtc[4] = 5, 6, 7, 1, 0x01
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01) // latch 0->1 edge

	m.Write(0x4000, 0x08) // select seconds
	if got := m.Read(0xA000); got != 5 {
		t.Fatalf("latched sec got %d want 5", got)
	}

	m.rtc[0] = 30 // live register changes, latched copy must not
	if got := m.Read(0xA000); got != 5 {
		t.Fatalf("latched sec changed unexpectedly: got %d", got)
	}

	m.Write(0x4000, 0x0C)
	if got := m.Read(0xA000); got&0x01 == 0 {
		t.Fatalf("latched day-high bit0 not set, got %#02x", got)
	}
}

func TestMBC3_RTC_TickRollover(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0, true)
	m.rtc[0] = 58 // 2 seconds from rollover

	ticks := 32 * 32768 * 2
	for i := 0; i < ticks; i++ {
		m.Tick()
	}
	if m.rtc[0] != 0 {
		t.Fatalf("seconds after 2s of ticks = %d, want 0", m.rtc[0])
	}
	if m.rtc[1] != 1 {
		t.Fatalf("minutes after rollover = %d, want 1", m.rtc[1])
	}
}

func TestMBC3_RTC_HaltStopsTicking(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0, true)
	m.rtc[4] = 0x40 // halt bit set
	for i := 0; i < 32*32768; i++ {
		m.Tick()
	}
	if m.rtc[0] != 0 {
		t.Fatalf("seconds advanced while halted: %d", m.rtc[0])
	}
}

func TestMBC3_RTC_Persist(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0, true)
	m.rtc = [5]byte{1, 2, 3, 4, 5}
	m.clockDivider, m.subTicks = 7, 1234

	data := m.SaveRTC()
	n := NewMBC3(rom, 0, true)
	n.LoadRTC(data)
	if n.rtc != m.rtc || n.clockDivider != m.clockDivider || n.subTicks != m.subTicks {
		t.Fatalf("RTC persist mismatch: got %+v want %+v", n.rtc, m.rtc)
	}
}

func TestMBC3_RAMBank_SelectAndRW(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 4*0x2000, false)
	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x02)
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("RAM bank 2 RW got %#02x want 0x42", got)
	}
	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0x42 {
		t.Fatalf("bank 0 unexpectedly aliases bank 2")
	}
}
