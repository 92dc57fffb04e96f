package websocket

import (
	"context"
	"encoding/json"
	"fmt"
)

func (that *Server) handleRequestSymbol(ctx context.Context, c *client, _ *Message) error {
	mark, err := that.runner.Admit(ctx, c.id)
	if err != nil {
		return fmt.Errorf("failed to admit session: %w", err)
	}

	that.logger.Debug("symbol assigned", "sessionID", c.id, "mark", mark)

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, c *client, msg *Message) error {
	var payloadReq MovePayload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	cell := -1
	if payloadReq.Index != nil {
		cell = *payloadReq.Index
	}

	if err := that.runner.ApplyMove(ctx, c.id, payloadReq.Player, cell); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Server) handleRequestReset(ctx context.Context, c *client, _ *Message) error {
	if err := that.runner.RequestReset(ctx, c.id); err != nil {
		return fmt.Errorf("failed to reset match: %w", err)
	}

	return nil
}
