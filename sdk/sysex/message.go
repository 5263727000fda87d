package sysex

// Message is the closed set of inbound message kinds. Classify returns
// exactly one of IdentityRequest, IdentityReply, CustomCommand or
// Unrecognized for any input.
type Message interface {
	message()
}

// IdentityRequest is the Universal Non-Realtime identity request addressed
// to all devices.
type IdentityRequest struct{}

// IdentityReply is the Universal Non-Realtime identity reply, carrying the
// manufacturer id and the fixed positional family/model/version fields.
type IdentityReply struct {
	Manufacturer byte
	Family       [2]byte // LSB, MSB
	Model        [2]byte // LSB, MSB
	Version      [4]byte // LSB, MSB, byte 2, byte 3
}

// CustomCommand is the vendor-specific envelope: manufacturer, target device,
// one command byte and the command's payload.
type CustomCommand struct {
	Manufacturer byte
	DeviceID     byte
	CommandID    byte
	Payload      []byte
}

// Unrecognized is any input that matched no other kind: malformed frames,
// frames addressed elsewhere, and non-SysEx status bytes. It is observed
// and logged only, never dispatched.
type Unrecognized struct {
	Raw []byte
}

func (IdentityRequest) message() {}
func (IdentityReply) message()   {}
func (CustomCommand) message()   {}
func (Unrecognized) message()    {}

// Classify maps any byte sequence to exactly one Message. It never fails:
// input that is not a valid frame, or that matches no known shape, comes
// back as Unrecognized. Custom commands are matched by exact manufacturer
// and device id; a frame addressed to a different device id is Unrecognized.
func Classify(raw []byte) Message {
	f, err := ParseFrame(raw)
	if err != nil {
		return Unrecognized{Raw: append([]byte(nil), raw...)}
	}

	switch {
	case len(f) == 6 &&
		f[1] == UniversalNonRealtime && f[2] == AllCall &&
		f[3] == GeneralInformation && f[4] == IdentityRequestID:
		return IdentityRequest{}

	case len(f) >= 5 && f[1] == ManufacturerID && f[2] == DeviceID:
		return CustomCommand{
			Manufacturer: f[1],
			DeviceID:     f[2],
			CommandID:    f[3],
			Payload:      append([]byte(nil), f[4:len(f)-1]...),
		}

	case len(f) >= 15 &&
		f[1] == UniversalNonRealtime && f[2] == AllCall &&
		f[3] == GeneralInformation && f[4] == IdentityReplyID:
		return IdentityReply{
			Manufacturer: f[5],
			Family:       [2]byte{f[6], f[7]},
			Model:        [2]byte{f[8], f[9]},
			Version:      [4]byte{f[10], f[11], f[12], f[13]},
		}
	}
	return Unrecognized{Raw: []byte(f)}
}

// Kind returns the label used for metrics and logs.
func Kind(m Message) string {
	switch m.(type) {
	case IdentityRequest:
		return "identity_request"
	case IdentityReply:
		return "identity_reply"
	case CustomCommand:
		return "custom_command"
	default:
		return "unrecognized"
	}
}

// Encode renders the identity request wire form: F0 7E 7F 06 01 F7.
func (IdentityRequest) Encode() Frame {
	return Frame{FrameStart, UniversalNonRealtime, AllCall, GeneralInformation, IdentityRequestID, FrameEnd}
}

// Encode renders the identity reply wire form:
// F0 7E 7F 06 02 <mfg> <family> <model> <version> F7.
func (m IdentityReply) Encode() Frame {
	f := Frame{FrameStart, UniversalNonRealtime, AllCall, GeneralInformation, IdentityReplyID, m.Manufacturer}
	f = append(f, m.Family[:]...)
	f = append(f, m.Model[:]...)
	f = append(f, m.Version[:]...)
	return append(f, FrameEnd)
}

// Encode renders the custom envelope wire form:
// F0 <mfg> <device> <command> <payload...> F7.
func (m CustomCommand) Encode() Frame {
	f := Frame{FrameStart, m.Manufacturer, m.DeviceID, m.CommandID}
	f = append(f, m.Payload...)
	return append(f, FrameEnd)
}
