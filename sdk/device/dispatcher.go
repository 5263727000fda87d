package device

import (
	"fmt"

	"github.com/leandrodaf/sysex/internal/metrics"
	"github.com/leandrodaf/sysex/sdk/contracts"
	"github.com/leandrodaf/sysex/sdk/sysex"
)

// deviceIdentity is the fixed identity this device reports. The identity is
// not modeled as mutable state, so every reply carries the same bytes.
var deviceIdentity = sysex.IdentityReply{
	Manufacturer: sysex.ManufacturerID,
	Family:       [2]byte{0x01, 0x01},
	Model:        [2]byte{0x01, 0x01},
	Version:      [4]byte{0x01, 0x01, 0x01, 0x01},
}

// Dispatcher routes classified inbound messages to command handlers. It is
// stateless across frames: each Handle call classifies, optionally replies,
// and forgets. The protocol defines no NACK, so every failure path is
// silent on the wire and surfaces only in logs and counters.
type Dispatcher struct {
	logger    contracts.Logger
	transport contracts.Transport
	actions   contracts.ActionLogger
	metrics   *metrics.Collector
}

// NewDispatcher wires a dispatcher to its collaborators.
func NewDispatcher(logger contracts.Logger, t contracts.Transport, actions contracts.ActionLogger, m *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		transport: t,
		actions:   actions,
		metrics:   m,
	}
}

// Handle classifies one raw inbound message and dispatches it.
func (d *Dispatcher) Handle(raw []byte) {
	msg := sysex.Classify(raw)
	d.metrics.FramesReceived.WithLabelValues(sysex.Kind(msg)).Inc()

	switch m := msg.(type) {
	case sysex.IdentityRequest:
		d.logger.Info("Received identity request")
		d.reply(deviceIdentity.Encode())
	case sysex.CustomCommand:
		d.handleCommand(m, raw)
	case sysex.IdentityReply:
		// A device receiving a reply is observational only.
		d.logger.Debug("Ignoring identity reply",
			d.logger.Field().Uint8("manufacturer", m.Manufacturer))
		d.metrics.FramesUnhandled.Inc()
	case sysex.Unrecognized:
		d.observe(m.Raw)
		d.metrics.FramesUnhandled.Inc()
	}
}

// handleCommand dispatches a validated custom command. Unknown command ids
// and short payloads are dropped with an observation log; SetParameter and
// GetParameter are part of the vocabulary but this device does not handle
// them yet, so they take the same silent-drop path.
func (d *Dispatcher) handleCommand(envelope sysex.CustomCommand, raw []byte) {
	cmd, err := sysex.ParseCommand(envelope.CommandID, envelope.Payload)
	if err != nil {
		d.logger.Warn("Dropping custom command",
			d.logger.Field().Uint8("command_id", envelope.CommandID),
			d.logger.Field().Error("error", err))
		d.metrics.FramesUnhandled.Inc()
		return
	}

	switch c := cmd.(type) {
	case sysex.TriggerAction:
		d.handleTriggerAction(c, raw)
	case sysex.SetParameter, sysex.GetParameter:
		d.logger.Warn("Command not handled by this device",
			d.logger.Field().Uint8("command_id", envelope.CommandID))
		d.metrics.FramesUnhandled.Inc()
	}
}

// handleTriggerAction logs the action and echoes the inbound frame verbatim
// as the acknowledgment. Log append and reply send are independent
// best-effort steps; a failure in one does not suppress the other.
func (d *Dispatcher) handleTriggerAction(cmd sysex.TriggerAction, raw []byte) {
	if cmd.ActionID != sysex.ActionLog {
		d.logger.Warn("Unknown action id", d.logger.Field().Uint8("action_id", cmd.ActionID))
		d.metrics.FramesUnhandled.Inc()
		return
	}

	record := fmt.Sprintf("TriggerAction: ID=%d, FullMsg=%v", cmd.ActionID, raw)
	if err := d.actions.Append(record); err != nil {
		d.logger.Error("Error appending action record", d.logger.Field().Error("error", err))
	}
	d.reply(raw)
}

// reply sends one frame back over the transport, best effort.
func (d *Dispatcher) reply(frame []byte) {
	if err := d.transport.Send(frame); err != nil {
		d.logger.Error("Error sending reply", d.logger.Field().Error("error", err))
		return
	}
	d.metrics.RepliesSent.Inc()
}

// observe logs unrecognized traffic without acting on it: channel voice
// messages get a decoded note/CC line, everything else a generic one.
func (d *Dispatcher) observe(raw []byte) {
	if len(raw) == 0 {
		return
	}

	status := raw[0]
	switch {
	case status >= 0x80 && status <= 0xEF:
		d.observeChannelMessage(raw)
	case status >= 0xF0:
		d.logger.Debug("System common message", d.logger.Field().Int("bytes", len(raw)))
	default:
		d.logger.Warn("Unknown or malformed message", d.logger.Field().Int("bytes", len(raw)))
	}
}

func (d *Dispatcher) observeChannelMessage(raw []byte) {
	messageType := raw[0] & 0xF0
	channel := int(raw[0]&0x0F) + 1
	if len(raw) < 3 {
		d.logger.Debug("Short channel message", d.logger.Field().Int("channel", channel))
		return
	}

	switch messageType {
	case 0x90:
		d.logger.Debug("Note On",
			d.logger.Field().Int("channel", channel),
			d.logger.Field().Uint8("note", raw[1]),
			d.logger.Field().Uint8("velocity", raw[2]))
	case 0x80:
		d.logger.Debug("Note Off",
			d.logger.Field().Int("channel", channel),
			d.logger.Field().Uint8("note", raw[1]),
			d.logger.Field().Uint8("velocity", raw[2]))
	case 0xB0:
		d.logger.Debug("Control Change",
			d.logger.Field().Int("channel", channel),
			d.logger.Field().Uint8("controller", raw[1]),
			d.logger.Field().Uint8("value", raw[2]))
	default:
		d.logger.Debug("Other channel message",
			d.logger.Field().Int("channel", channel),
			d.logger.Field().Uint8("type", messageType))
	}
}
