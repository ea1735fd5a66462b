package claimer

import (
	"context"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/auth"
	"github.com/forest-army/faucet-claimer/pkg/faucet"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/forest-army/faucet-claimer/pkg/validation"
	"github.com/forest-army/faucet-claimer/pkg/wallet"
)

// RunExisting claims for the configured wallet until ctx ends, a claim fails
// with anything but a cooldown conflict, or the claim bound is reached.
//
// A missing or malformed secret is returned as a configuration error before
// any network call. ctx cancellation is returned as ctx.Err() without a
// failure summary.
func (o *Orchestrator) RunExisting(ctx context.Context) error {
	o.report.Divider()
	o.report.Stamp("Starting faucet claim with existing wallet...")

	if err := validation.ValidatePrivateKey(o.secretEnv, o.secret); err != nil {
		return err
	}
	identity, err := o.loadIdentity(o.secret)
	if err != nil {
		return configurationError(err)
	}
	o.report.Step("Wallet loaded from private key")
	logger.InfoContext(ctx, "existing wallet loaded", "address", identity.Address)

	session, err := o.login(ctx, identity)
	if err != nil {
		return o.existingFailed(ctx, err)
	}

	claims := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, err := o.faucet.FetchAccountStatus(ctx, session)
		if err != nil {
			return o.existingFailed(ctx, err)
		}

		if !status.Claimable(o.now()) {
			o.report.Stamp("Status: Faucet claim on cooldown")
			o.report.Divider()
			o.report.Line("Address: %s", identity.Address)
			o.report.Line("Username: %s", status.Username)
			logger.InfoContext(ctx, "waiting for faucet cooldown",
				"address", identity.Address,
				"next_claim_at", status.NextClaimAllowedAt.UTC().Format(time.RFC3339))
			if err := o.waiter.Await(ctx, status.NextClaimAllowedAt); err != nil {
				return err
			}
		}

		if _, err := o.faucet.Claim(ctx, session); err != nil {
			if faucet.IsClaimConflict(err) {
				// The server still considers the window closed; ask again.
				o.observeClaim(identity.Address, ResultConflict)
				logger.DebugContext(ctx, "claim conflict, re-checking status", "address", identity.Address)
				continue
			}
			if isCancellation(ctx, err) {
				return ctx.Err()
			}
			o.observeClaim(identity.Address, ResultFailed)
			return o.existingFailed(ctx, err)
		}
		o.observeClaim(identity.Address, ResultSuccess)
		claims++

		o.report.Step("Faucet claimed")
		o.report.Divider()
		o.report.Line("Existing Wallet Summary:")
		o.report.Line("Address: %s", identity.Address)
		o.report.Line("Username: %s", status.Username)
		o.reportBalance(ctx, identity.Address)
		o.report.Line("Status: Successfully claimed faucet")
		o.report.Divider()
		logger.InfoContext(ctx, "faucet claimed", "address", identity.Address, "claims", claims)

		if o.maxClaims > 0 && claims >= o.maxClaims {
			logger.InfoContext(ctx, "claim bound reached", "max_claims", o.maxClaims)
			return nil
		}
		if err := pause(ctx, o.claimPause); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) login(ctx context.Context, identity *wallet.Identity) (*auth.Session, error) {
	challenge, err := o.auth.FetchChallenge(ctx, identity.Address)
	if err != nil {
		return nil, err
	}
	o.report.Step("Challenge retrieved")

	session, err := o.auth.Login(ctx, identity, challenge)
	if err != nil {
		return nil, err
	}
	o.report.Step("Login completed")
	return session, nil
}

// existingFailed prints the failure summary and returns err. Cancellation
// is passed through silently.
func (o *Orchestrator) existingFailed(ctx context.Context, err error) error {
	if isCancellation(ctx, err) {
		return ctx.Err()
	}
	message := api.Message(err)
	o.report.Failure(message)
	o.report.Divider()
	o.report.Line("Existing Wallet Summary:")
	o.report.Line("Status: Failed to process")
	o.report.Line("Error: %s", message)
	o.report.Divider()
	logger.ErrorContext(ctx, "existing wallet flow failed", "error", err)
	return err
}
