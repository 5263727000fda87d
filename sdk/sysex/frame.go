// Package sysex implements the SysEx command/control protocol engine:
// frame validation, message classification and the custom command vocabulary.
package sysex

import "errors"

// Wire constants. All custom traffic lives in the non-commercial
// manufacturer space.
const (
	FrameStart byte = 0xF0
	FrameEnd   byte = 0xF7

	UniversalNonRealtime byte = 0x7E
	GeneralInformation   byte = 0x06
	IdentityRequestID    byte = 0x01
	IdentityReplyID      byte = 0x02

	ManufacturerID byte = 0x7D
	DeviceID       byte = 0x01
	AllCall        byte = 0x7F
)

// ErrNotAFrame is returned when a byte buffer is not a complete SysEx frame.
var ErrNotAFrame = errors.New("not a SysEx frame")

// Frame is a complete SysEx message, delimiters included. A Frame is only
// produced by ParseFrame or by an encoder, so both delimiters are always
// present; a buffer missing either is raw malformed input, not a Frame.
type Frame []byte

// ParseFrame validates b as a SysEx frame and returns a copy of it.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < 2 || b[0] != FrameStart || b[len(b)-1] != FrameEnd {
		return nil, ErrNotAFrame
	}
	f := make(Frame, len(b))
	copy(f, b)
	return f, nil
}

// Body returns the bytes between the delimiters.
func (f Frame) Body() []byte {
	return f[1 : len(f)-1]
}
