// Package sundaecron provides utilities for building scheduled Lambda functions.
package sundaecron

import (
	"context"
	"encoding/json"
	"fmt"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
)

type RunCallback func(ctx context.Context) error

type Handler struct {
	service sundaecli.Service
	Logger  zerolog.Logger

	runOnce RunCallback
}

func NewHandler(
	service sundaecli.Service,
	runOnce RunCallback,
) *Handler {
	return &Handler{
		service: service,
		Logger:  sundaecli.Logger(service),
		runOnce: runOnce,
	}
}

// RunOnce is the Lambda entry point for an EventBridge schedule; the payload
// is ignored.
func (h *Handler) RunOnce(ctx context.Context, _ json.RawMessage) error {
	ctx = h.Logger.WithContext(ctx)
	h.Logger.Info().Msg("running scheduled task")
	if err := h.runOnce(ctx); err != nil {
		h.Logger.Error().Err(err).Msg("scheduled task failed")
		return fmt.Errorf("scheduled task failed: %w", err)
	}
	return nil
}

func (h *Handler) Start() error {
	switch {
	case sundaecli.CommonOpts.Console:
		return h.RunOnce(context.Background(), nil)

	default:
		lambda.Start(h.RunOnce)
	}
	return nil
}
