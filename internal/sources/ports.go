// Package sources defines the message feeds transactions are ingested from.
package sources

import (
	"context"
	"time"

	"wallet/internal/core"
)

type (
	// State is the connection status reported to the presentation layer.
	State struct {
		Connected bool       `json:"isConnected"`
		LastSync  *time.Time `json:"lastSync,omitempty"`
	}

	// MessageSource yields notification messages once connected.
	// FetchMessages fails with core.ErrNotConnected while disconnected.
	MessageSource interface {
		Name() string
		Connect(ctx context.Context) (State, error)
		Disconnect(ctx context.Context) (State, error)
		State() State
		FetchMessages(ctx context.Context) ([]core.Message, error)
	}
)
