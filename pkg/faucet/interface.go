package faucet

import (
	"context"

	"github.com/forest-army/faucet-claimer/pkg/auth"
)

// Fauceter defines the interface for a faucet client.
type Fauceter interface {
	Claim(ctx context.Context, session *auth.Session) (*Ack, error)
	FetchAccountStatus(ctx context.Context, session *auth.Session) (*AccountStatus, error)
}
