package cart

import (
	"encoding/binary"
	"testing"
)

func buildCartROM(cartType, romSizeCode, ramSizeCode byte, size int) []byte {
	rom := make([]byte, size)
	copy(rom[0x0104:0x0104+len(nintendoLogo)], nintendoLogo[:])
	copy(rom[0x0134:0x0144], []byte("TEST"))
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	rom[0x014B] = 0x33

	var hsum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		hsum = hsum - rom[addr] - 1
	}
	rom[0x014D] = hsum

	var gsum uint16
	for i := range rom {
		if i == 0x014E || i == 0x014F {
			continue
		}
		gsum += uint16(rom[i])
	}
	binary.BigEndian.PutUint16(rom[0x014E:0x0150], gsum)
	return rom
}

func TestNewCartridge_PicksMBCByType(t *testing.T) {
	cases := []struct {
		name     string
		cartType byte
		want     any
	}{
		{"rom-only", 0x00, &ROMOnly{}},
		{"mbc1", 0x01, &MBC1{}},
		{"mbc2", 0x05, &MBC2{}},
		{"mbc3", 0x0F, &MBC3{}},
		{"mbc5", 0x19, &MBC5{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rom := buildCartROM(c.cartType, 0x01, 0x02, 64*1024)
			got, h, err := NewCartridge(rom)
			if err != nil {
				t.Fatalf("NewCartridge error: %v", err)
			}
			if h.CartType != c.cartType {
				t.Fatalf("header CartType got %#02x want %#02x", h.CartType, c.cartType)
			}
			switch c.want.(type) {
			case *ROMOnly:
				if _, ok := got.(*ROMOnly); !ok {
					t.Fatalf("got %T, want *ROMOnly", got)
				}
			case *MBC1:
				if _, ok := got.(*MBC1); !ok {
					t.Fatalf("got %T, want *MBC1", got)
				}
			case *MBC2:
				if _, ok := got.(*MBC2); !ok {
					t.Fatalf("got %T, want *MBC2", got)
				}
			case *MBC3:
				if _, ok := got.(*MBC3); !ok {
					t.Fatalf("got %T, want *MBC3", got)
				}
			case *MBC5:
				if _, ok := got.(*MBC5); !ok {
					t.Fatalf("got %T, want *MBC5", got)
				}
			}
		})
	}
}

func TestNewCartridge_RejectsBadChecksum(t *testing.T) {
	rom := buildCartROM(0x00, 0x00, 0x00, 32*1024)
	rom[0x0134] ^= 0xFF
	if _, _, err := NewCartridge(rom); err == nil {
		t.Fatalf("expected error for bad header checksum")
	}
}

func TestNewCartridge_RejectsUnsupportedType(t *testing.T) {
	rom := buildCartROM(0xFE, 0x00, 0x00, 32*1024)
	if _, _, err := NewCartridge(rom); err == nil {
		t.Fatalf("expected error for unsupported cartridge type")
	}
}
