package model

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is a locally stored wallet with one address per network name.
type Wallet struct {
	Name      string
	Addresses map[string]string
}

// TxSubmittedEvent is published after a transaction was accepted by a network.
type TxSubmittedEvent struct {
	ID          uuid.UUID      `json:"id"`
	Network     string         `json:"network"`
	ChainID     int64          `json:"chain_id"`
	Family      ProtocolFamily `json:"family"`
	TxID        string         `json:"tx_id"`
	To          string         `json:"to"`
	SubmittedAt time.Time      `json:"submitted_at"`
}
