package claimer

import (
	"context"
	"errors"

	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/forest-army/faucet-claimer/pkg/recorder"
	"github.com/forest-army/faucet-claimer/pkg/validation"
)

// CancelledMessage is recorded for slots never started because the run was stopped.
const CancelledMessage = "cancelled"

// BatchResult is the outcome of RunBatch.
type BatchResult struct {
	Output  string
	Records []recorder.ClaimRecord
	Success int
	Failed  int
}

// RunBatch creates n wallets one after the other, signs each up and claims
// once for it. Exactly n records are produced in slot order; the artifact is
// rewritten after every slot.
//
// When ctx ends mid-run the slot in flight fails with the cancellation
// message, the remaining slots are recorded as cancelled, and ctx.Err() is
// returned together with the result.
func (o *Orchestrator) RunBatch(ctx context.Context, n int) (*BatchResult, error) {
	if err := validation.ValidateWalletCount(n); err != nil {
		return nil, err
	}

	rec := recorder.New(o.output)
	var persistErr error
	appendRecord := func(record recorder.ClaimRecord) {
		if err := rec.Append(record); err != nil {
			persistErr = err
			logger.ErrorContext(ctx, "failed to persist wallet records", "error", err)
		}
		o.observeWallet(record.Succeeded())
	}

	o.report.Divider()
	o.report.Stamp("Starting wallet creation process...")
	o.report.Line("Target: %d wallets", n)
	o.report.Divider()

	for i := 1; i <= n && ctx.Err() == nil; i++ {
		o.report.Blank()
		o.report.Stamp("Processing wallet %d/%d", i, n)
		appendRecord(o.processWallet(ctx, i))

		if i < n {
			_ = pause(ctx, o.batchPause)
		}
	}

	for rec.Len() < n {
		appendRecord(recorder.Failed(CancelledMessage, o.timestamp()))
	}

	result := &BatchResult{Output: rec.Path(), Records: rec.Records()}
	result.Success, result.Failed = rec.Counts()

	if persistErr == nil && result.Output != "" {
		o.report.Divider()
		o.report.Stamp("Success: Wallet data saved to %s", result.Output)
		o.report.Line("Total wallets: %d", len(result.Records))
		o.report.Divider()
	}
	logger.InfoContext(ctx, "batch finished", "success", result.Success, "failed", result.Failed, "output", result.Output)

	return result, errors.Join(persistErr, ctx.Err())
}

// processWallet runs one slot to its terminal record. Any failure yields a
// failed record without identity fields.
func (o *Orchestrator) processWallet(ctx context.Context, i int) recorder.ClaimRecord {
	fail := func(err error) recorder.ClaimRecord {
		message := api.Message(err)
		o.report.Failure(message)
		o.report.Divider()
		o.report.Line("Wallet %d Summary:", i)
		o.report.Line("Status: Failed to create")
		o.report.Line("Error: %s", message)
		o.report.Divider()
		logger.WarnContext(ctx, "wallet failed", "slot", i, "error", err)
		return recorder.Failed(message, o.timestamp())
	}

	identity, err := o.newIdentity()
	if err != nil {
		return fail(err)
	}
	o.report.Step("Generating new wallet")

	challenge, err := o.auth.FetchChallenge(ctx, identity.Address)
	if err != nil {
		return fail(err)
	}
	o.report.Step("Challenge retrieved")

	session, err := o.auth.Signup(ctx, identity, challenge)
	if err != nil {
		return fail(err)
	}
	o.report.Step("Signup completed")

	if _, err := o.faucet.Claim(ctx, session); err != nil {
		o.observeClaim(identity.Address, ResultFailed)
		return fail(err)
	}
	o.observeClaim(identity.Address, ResultSuccess)
	o.report.Step("Faucet claimed")

	o.report.Divider()
	o.report.Line("Wallet %d Summary:", i)
	o.report.Line("Address: %s", identity.Address)
	o.reportBalance(ctx, identity.Address)
	o.report.Line("Status: Successfully created and funded")
	o.report.Divider()
	logger.InfoContext(ctx, "wallet created and funded", "slot", i, "address", identity.Address)

	return recorder.Succeeded(identity.Address, identity.PrivateKey, identity.Mnemonic, session.Token, o.timestamp())
}

// ReportCompletion prints the closing lines of a run. result is nil for the
// existing-wallet flow.
func ReportCompletion(r Reporter, result *BatchResult) {
	r.Stamp("Process completed")
	if result == nil {
		return
	}
	r.Line("Success: %d wallets", result.Success)
	r.Line("Failed: %d wallets", result.Failed)
}
