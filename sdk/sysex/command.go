package sysex

import "errors"

// Command ids carried in the CustomCommand envelope.
const (
	CommandSetParameter  byte = 0x01
	CommandGetParameter  byte = 0x02
	CommandTriggerAction byte = 0x03
)

// ActionLog is the only defined TriggerAction action id.
const ActionLog byte = 0x01

// Error definitions for command parsing.
var (
	ErrUnknownCommand = errors.New("unknown command id")
	ErrShortPayload   = errors.New("payload shorter than command arity")
)

// Command is the fixed vocabulary carried inside a CustomCommand envelope.
// Each command carries exactly the payload bytes its arity requires.
type Command interface {
	CommandID() byte
	payload() []byte
}

// SetParameter asks the device to set a parameter to a value.
type SetParameter struct {
	ParamID byte
	Value   byte
}

// GetParameter asks the device for a parameter's value.
type GetParameter struct {
	ParamID byte
}

// TriggerAction asks the device to perform the identified action.
type TriggerAction struct {
	ActionID byte
}

// CommandID returns the wire command id for SetParameter.
func (SetParameter) CommandID() byte { return CommandSetParameter }

// CommandID returns the wire command id for GetParameter.
func (GetParameter) CommandID() byte { return CommandGetParameter }

// CommandID returns the wire command id for TriggerAction.
func (TriggerAction) CommandID() byte { return CommandTriggerAction }

func (c SetParameter) payload() []byte  { return []byte{c.ParamID, c.Value} }
func (c GetParameter) payload() []byte  { return []byte{c.ParamID} }
func (c TriggerAction) payload() []byte { return []byte{c.ActionID} }

// ParseCommand validates a command id and payload against the vocabulary.
// A payload shorter than the command's arity is a validation failure
// (ErrShortPayload), never a panic.
func ParseCommand(id byte, payload []byte) (Command, error) {
	switch id {
	case CommandSetParameter:
		if len(payload) < 2 {
			return nil, ErrShortPayload
		}
		return SetParameter{ParamID: payload[0], Value: payload[1]}, nil
	case CommandGetParameter:
		if len(payload) < 1 {
			return nil, ErrShortPayload
		}
		return GetParameter{ParamID: payload[0]}, nil
	case CommandTriggerAction:
		if len(payload) < 1 {
			return nil, ErrShortPayload
		}
		return TriggerAction{ActionID: payload[0]}, nil
	}
	return nil, ErrUnknownCommand
}

// EncodeCommand wraps a command in the custom envelope addressed to deviceID.
func EncodeCommand(deviceID byte, c Command) Frame {
	return CustomCommand{
		Manufacturer: ManufacturerID,
		DeviceID:     deviceID,
		CommandID:    c.CommandID(),
		Payload:      c.payload(),
	}.Encode()
}
