// Package serial models the SB/SC registers (FF01/FF02). The peer side
// of the link cable is out of scope (spec.md §1 Non-goals); this stub
// only echoes outbound bytes to an optional sink, which is how test
// ROMs report pass/fail status.
package serial

import "io"

type Serial struct {
	sb   byte
	sc   byte
	sink io.Writer

	transferCycles int // machine cycles remaining in an internal-clock transfer
}

func New() *Serial { return &Serial{} }

// SetSink installs the writer that receives bytes as they finish
// transferring. An internal-clock transfer completes immediately on the
// SC write that starts it; no 8192 Hz bit timing is modelled.
func (s *Serial) SetSink(w io.Writer) { s.sink = w }

func (s *Serial) SB() byte { return s.sb }
func (s *Serial) SC() byte { return 0x7E | s.sc }

func (s *Serial) WriteSB(v byte) { s.sb = v }

func (s *Serial) WriteSC(v byte) {
	s.sc = v & 0x81
	if s.sc&0x81 == 0x81 {
		// Internal clock and no peer: complete the transfer immediately
		// and echo the byte, leaving 0xFF shifted in as the reply.
		if s.sink != nil {
			_, _ = s.sink.Write([]byte{s.sb})
		}
		s.sb = 0xFF
		s.sc &^= 0x80
	}
}

// Tick is a no-op placeholder for the machine-cycle fan-out; kept so
// the bus can tick serial uniformly with other peripherals even though
// the local stub resolves transfers synchronously on write.
func (s *Serial) Tick(mCycles int) {}
