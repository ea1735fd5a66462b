// Package recorder keeps the per-wallet outcome of a batch run and mirrors it
// to a JSON file.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/forest-army/faucet-claimer/pkg/logger"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ClaimRecord is the terminal state of one requested wallet slot.
// Identity fields are null for failed slots.
type ClaimRecord struct {
	Address      *string `json:"address"`
	PrivateKey   *string `json:"privateKey"`
	Mnemonic     *string `json:"mnemonic"`
	Token        *string `json:"token"`
	SignupStatus Status  `json:"signupStatus"`
	FaucetStatus Status  `json:"faucetStatus"`
	Error        string  `json:"error,omitempty"`
	Timestamp    string  `json:"timestamp"`
}

// Succeeded builds the record of a wallet that was registered and funded.
func Succeeded(address, privateKey, mnemonic, token, timestamp string) ClaimRecord {
	return ClaimRecord{
		Address:      &address,
		PrivateKey:   &privateKey,
		Mnemonic:     optional(mnemonic),
		Token:        &token,
		SignupStatus: StatusSuccess,
		FaucetStatus: StatusSuccess,
		Timestamp:    timestamp,
	}
}

// Failed builds the record of a slot that did not complete.
func Failed(message, timestamp string) ClaimRecord {
	if message == "" {
		message = "unknown error"
	}
	return ClaimRecord{
		SignupStatus: StatusFailed,
		FaucetStatus: StatusFailed,
		Error:        message,
		Timestamp:    timestamp,
	}
}

func (r ClaimRecord) Succeeded() bool {
	return r.SignupStatus == StatusSuccess
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Recorder accumulates records in order. With a non-empty path every Append
// rewrites the whole file, so the file always holds the records seen so far.
type Recorder struct {
	mu      sync.Mutex
	path    string
	records []ClaimRecord
}

// New returns a Recorder writing to path. Nothing touches the filesystem
// until the first Append.
func New(path string) *Recorder {
	return &Recorder{path: path}
}

func (r *Recorder) Path() string {
	return r.path
}

// Append adds record and persists the full sequence.
func (r *Recorder) Append(record ClaimRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record)
	if r.path == "" {
		return nil
	}
	if err := writeAtomic(r.path, r.records); err != nil {
		return fmt.Errorf("failed to persist %s: %w", r.path, err)
	}
	logger.Debugf("[recorder] %d records written to %s", len(r.records), r.path)
	return nil
}

// Records returns a copy of the records appended so far.
func (r *Recorder) Records() []ClaimRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ClaimRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Counts returns the number of successful and failed records.
func (r *Recorder) Counts() (success, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Succeeded() {
			success++
		} else {
			failed++
		}
	}
	return success, failed
}

// writeAtomic writes records to a temp file next to path and renames it over path.
func writeAtomic(path string, records []ClaimRecord) (err error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
