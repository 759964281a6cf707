package netlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// commandResult settles a pending command slot exactly once: either the
// full acknowledgement body or a typed error.
type commandResult struct {
	body map[string]any
	err  error
}

// pendingCommand is an in-flight command awaiting acknowledgement
type pendingCommand struct {
	command string
	slot    chan commandResult
}

// commandEnvelope is the payload of an outgoing "command" event
type commandEnvelope struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// SendCommand sends a named command over the event socket and waits for
// the device's acknowledgement, up to the socket's default command
// timeout. The returned map is the full acknowledgement body (including
// "id" and "status") for a successful command.
//
// Concurrent commands are correlated by a unique token; acknowledgements
// arriving out of order settle the right caller.
func (s *Socket) SendCommand(ctx context.Context, command string, data map[string]any) (map[string]any, error) {
	return s.SendCommandTimeout(ctx, command, data, s.commandTimeout)
}

// SendCommandTimeout is SendCommand with a per-call acknowledgement wait
func (s *Socket) SendCommandTimeout(ctx context.Context, command string, data map[string]any, timeout time.Duration) (map[string]any, error) {
	s.mu.Lock()
	connected := s.connected
	t := s.transport
	s.mu.Unlock()
	if !connected || t == nil {
		return nil, newConnectionError("not connected", nil)
	}

	token := uuid.NewString()
	slot := make(chan commandResult, 1)
	s.pendingMu.Lock()
	s.pending[token] = pendingCommand{command: command, slot: slot}
	s.pendingMu.Unlock()

	envelope := commandEnvelope{ID: token, Type: command, Data: data}
	if err := t.Emit(eventCommand, envelope); err != nil {
		s.removePending(token)
		return nil, newConnectionError(fmt.Sprintf("failed to send command %s", command), err)
	}
	s.logger.Debug("command sent",
		zap.String("command", command),
		zap.String("id", token),
	)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-slot:
		if result.err != nil {
			return nil, result.err
		}
		return result.body, nil
	case <-timer.C:
		s.removePending(token)
		return nil, newTimeoutError(fmt.Sprintf(
			"timed out waiting for acknowledgement of command %s", command), nil)
	case <-ctx.Done():
		s.removePending(token)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, newTimeoutError(fmt.Sprintf(
				"timed out waiting for acknowledgement of command %s", command), ctx.Err())
		}
		return nil, newConnectionError(fmt.Sprintf(
			"canceled while waiting for acknowledgement of command %s", command), ctx.Err())
	}
}

// onCommandAck settles the pending command matching the acknowledgement's
// id. Devices wrap some acknowledgement bodies one level under "data";
// that level is stripped here, at the single point of receipt, so waiters
// always see the flat shape. Acknowledgements for unknown ids (already
// timed out, or duplicates) are dropped.
func (s *Socket) onCommandAck(raw json.RawMessage) {
	body := unwrapPayload(raw)

	id, _ := body["id"].(string)
	if id == "" {
		s.logger.Warn("acknowledgement without command id")
		return
	}

	pc, ok := s.takePending(id)
	if !ok {
		s.logger.Debug("acknowledgement for unknown command id", zap.String("id", id))
		return
	}

	status, _ := body["status"].(string)
	if status == "error" {
		message, _ := body["error"].(string)
		if message == "" {
			message = "command failed"
		}
		pc.slot <- commandResult{err: newCommandError(message, pc.command)}
		return
	}
	pc.slot <- commandResult{body: body}
}

// takePending removes and returns the entry for token. The caller that
// wins the removal is the only one allowed to send on the slot, so a
// command settles at most once even when an acknowledgement races a
// timeout.
func (s *Socket) takePending(token string) (pendingCommand, bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	pc, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	return pc, ok
}

func (s *Socket) removePending(token string) {
	s.pendingMu.Lock()
	delete(s.pending, token)
	s.pendingMu.Unlock()
}

// failPending settles every in-flight command with err. Used on
// disconnect so no waiter hangs for a dead session's acknowledgement.
func (s *Socket) failPending(err error) {
	s.pendingMu.Lock()
	drained := make([]pendingCommand, 0, len(s.pending))
	for token, pc := range s.pending {
		drained = append(drained, pc)
		delete(s.pending, token)
	}
	s.pendingMu.Unlock()

	for _, pc := range drained {
		pc.slot <- commandResult{err: err}
	}
	if len(drained) > 0 {
		s.logger.Debug("failed pending commands", zap.Int("count", len(drained)))
	}
}
