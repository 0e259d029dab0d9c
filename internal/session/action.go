package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/draft"
	"github.com/julianstephens/habitline/internal/logger"
)

// Action is an inbound request from a draft display.
type Action interface {
	action() string
}

type ConfirmAction struct{}

type UpdateItemAction struct {
	ItemID string `json:"item_id"`
	draft.UpdateRequest
}

func (ConfirmAction) action() string    { return constants.ActionConfirm }
func (UpdateItemAction) action() string { return constants.ActionUpdateItem }

// DecodeAction parses {"action": "...", ...} into its variant.
func DecodeAction(data []byte) (Action, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed action: %w", err)
	}

	switch head.Action {
	case constants.ActionConfirm:
		return ConfirmAction{}, nil
	case constants.ActionUpdateItem:
		var a UpdateItemAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("malformed %s action: %w", head.Action, err)
		}
		if a.ItemID == "" {
			return nil, fmt.Errorf("%s action requires item_id", head.Action)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action %q", head.Action)
	}
}

// EncodeAction is the inverse of DecodeAction.
func EncodeAction(a Action) ([]byte, error) {
	switch act := a.(type) {
	case ConfirmAction:
		return json.Marshal(map[string]string{"action": act.action()})
	case UpdateItemAction:
		return json.Marshal(struct {
			Action string `json:"action"`
			UpdateItemAction
		}{act.action(), act})
	default:
		return nil, fmt.Errorf("unsupported action %T", a)
	}
}

// Apply runs a decoded action. Failures are also published as a status
// notice so the display that sent the action sees them.
func (s *Session) Apply(ctx context.Context, a Action) ToolResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ToolResult
	switch act := a.(type) {
	case ConfirmAction:
		res = s.run(ctx, act.action(), func(ctx context.Context, s *Session, _ json.RawMessage) (ToolResult, error) {
			return s.confirm(ctx)
		}, nil)
	case UpdateItemAction:
		res = s.run(ctx, act.action(), func(_ context.Context, s *Session, _ json.RawMessage) (ToolResult, error) {
			return s.update(act.ItemID, act.UpdateRequest)
		}, nil)
	default:
		res = ToolResult{Kind: constants.KindBadRequest, Message: fmt.Sprintf("unsupported action %T", a)}
	}

	if !res.OK {
		s.publish(constants.MessageTypeStatus, "Error: "+res.Message, nil)
	}
	return res
}

// HandleMessage decodes and applies one raw inbound message.
func (s *Session) HandleMessage(ctx context.Context, data []byte) ToolResult {
	a, err := DecodeAction(data)
	if err != nil {
		logger.Warn("Rejected inbound action", "session", s.ID, "error", err)
		s.publish(constants.MessageTypeStatus, "Error: "+err.Error(), nil)
		return ToolResult{Kind: constants.KindBadRequest, Message: err.Error()}
	}
	return s.Apply(ctx, a)
}
