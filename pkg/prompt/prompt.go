// Package prompt implements the interactive menu shown at start-up.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/forest-army/faucet-claimer/pkg/validation"
)

// Mode selects which flow a run executes.
type Mode int

const (
	ModeUnset Mode = iota
	ModeExisting
	ModeBatch
)

func (m Mode) String() string {
	switch m {
	case ModeExisting:
		return "existing"
	case ModeBatch:
		return "batch"
	default:
		return "unset"
	}
}

const divider = "------------------------------------------------------------"

// ParseMode accepts the menu numbers and the flag names.
func ParseMode(input string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "existing":
		return ModeExisting, nil
	case "2", "batch":
		return ModeBatch, nil
	}
	return ModeUnset, validation.ValidationError{
		Field:   "option",
		Message: "invalid option, please select 1 or 2",
	}
}

// Selection is the validated outcome of the menu.
type Selection struct {
	Mode  Mode
	Count int
}

// Prompter reads menu answers from r and writes questions to w.
type Prompter struct {
	reader *bufio.Reader
	w      io.Writer
}

func New(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(r), w: w}
}

// Banner prints the title and the option list.
func (p *Prompter) Banner(title, secretEnv string) {
	fmt.Fprintf(p.w, "\n= %s =\n\n", title)
	fmt.Fprintln(p.w, "Options:")
	fmt.Fprintf(p.w, "1. Claim faucet with existing wallet (using %s from .env)\n", secretEnv)
	fmt.Fprintln(p.w, "2. Create new wallets, signup, and claim faucet")
	fmt.Fprintln(p.w, divider)
}

// Select asks for whatever preset leaves open. A preset mode skips the menu
// and a preset count skips the wallet count question. Count 0 means unset;
// a negative preset is rejected before anything is asked.
func (p *Prompter) Select(preset Selection) (Selection, error) {
	sel := preset
	if sel.Count < 0 {
		return Selection{}, validation.ValidateWalletCount(sel.Count)
	}

	if sel.Mode == ModeUnset {
		answer, err := p.ask("Select an option (1 or 2): ")
		if err != nil {
			return Selection{}, err
		}
		if sel.Mode, err = ParseMode(answer); err != nil {
			return Selection{}, err
		}
	}

	if sel.Mode == ModeBatch && sel.Count == 0 {
		answer, err := p.ask("How many wallets would you like to create? ")
		if err != nil {
			return Selection{}, err
		}
		if sel.Count, err = validation.ParseWalletCount(answer); err != nil {
			return Selection{}, err
		}
	}

	return sel, nil
}

// ask prints question and reads one trimmed line. A last line without a
// newline is accepted.
func (p *Prompter) ask(question string) (string, error) {
	if _, err := fmt.Fprint(p.w, question); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
