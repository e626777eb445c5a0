package cart

import "testing"

func TestMBC2_BankSelectViaAddressBit8(t *testing.T) {
	rom := make([]byte, 256*1024)
	for bank := 0; bank < 16; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC2(rom)

	// Address bit 8 clear -> RAM enable latch, not bank select.
	m.Write(0x0000, 0x05)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank got %#02x want 0x01", got)
	}

	// Address bit 8 set -> bank select.
	m.Write(0x2100, 0x03)
	if got := m.Read(0x4000); got != 0x03 {
		t.Fatalf("bank select got %#02x want 0x03", got)
	}

	m.Write(0x2100, 0x00)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank 0 remap got %#02x want 0x01", got)
	}
}

func TestMBC2_RAMHighNibbleAlwaysF(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC2(rom)
	m.Write(0x0000, 0x0A) // enable (bit8 clear)
	m.Write(0xA010, 0xFF)
	if got := m.Read(0xA010); got != 0xFF {
		t.Fatalf("got %#02x want 0xFF", got)
	}
	m.Write(0xA010, 0x03)
	if got := m.Read(0xA010); got != 0xF3 {
		t.Fatalf("high nibble not forced: got %#02x want 0xF3", got)
	}
}
