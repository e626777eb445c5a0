// Package cart implements cartridge header parsing and the memory bank
// controller (MBC) variants that decode the 0x0000-0x7FFF and
// 0xA000-0xBFFF CPU address ranges.
package cart

import "fmt"

// Cartridge is the minimal interface the Bus needs for ROM/RAM banking.
// Addresses are CPU addresses; Tick advances any cartridge-resident
// clock hardware (only MBC3's RTC divider uses it).
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	Tick()
}

// BatteryBacked is implemented by cartridges with persistable external
// RAM. SaveRAM returns nil when there is nothing to persist.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// RTCBacked is implemented by cartridges with a persistable real-time
// clock (MBC3 only). The anchor is an emulator-relative tick count, not
// a host wall-clock timestamp — see DESIGN.md for the rationale.
type RTCBacked interface {
	SaveRTC() []byte
	LoadRTC(data []byte)
}

// LoadError describes a fatal, load-time cartridge defect (§7 taxonomy:
// "Cartridge malformed").
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string { return fmt.Sprintf("cartridge malformed: %s", e.Reason) }

// NewCartridge parses the header and picks an MBC implementation. It
// returns a *LoadError for headers that fail validation or name a
// cartridge type this emulator does not support.
func NewCartridge(rom []byte) (Cartridge, *Header, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, nil, &LoadError{Reason: err.Error()}
	}
	if !HeaderChecksumOK(rom) {
		return nil, nil, &LoadError{Reason: fmt.Sprintf("header checksum mismatch (want %#02x)", h.HeaderChecksum)}
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom, 0), h, nil
	case 0x08, 0x09:
		return NewROMOnly(rom, h.RAMSizeBytes), h, nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), h, nil
	case 0x05, 0x06:
		return NewMBC2(rom), h, nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		hasTimer := h.CartType == 0x0F || h.CartType == 0x10
		return NewMBC3(rom, h.RAMSizeBytes, hasTimer), h, nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return NewMBC5(rom, h.RAMSizeBytes), h, nil
	default:
		return nil, nil, &LoadError{Reason: fmt.Sprintf("unsupported cartridge type %#02x", h.CartType)}
	}
}
