package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	// ErrDenied means the user declined the approval prompt.
	// This is a normal outcome, not a failure.
	ErrDenied = errors.New("user denied command execution")

	// ErrTicketMismatch means the command offered for execution is not the
	// one the user approved.
	ErrTicketMismatch = errors.New("command does not match the approved command")

	// ErrTicketUsed means the ticket was already redeemed once
	ErrTicketUsed = errors.New("approval ticket already used")
)

// Ticket is a single-use approval token bound to an exact command string.
// Execution must redeem a ticket; string equality with a mutable pending
// flag is not enough, since a reordered or changed command could slip
// through.
type Ticket struct {
	command string
	used    bool
}

// Approver obtains explicit user approval for commands before execution.
// Only one approval can be pending at a time: the prompt blocks on the
// interactive channel and the mutex serializes access to it.
type Approver struct {
	mu     sync.Mutex
	reader io.Reader
	writer io.Writer
}

// NewApprover creates an approver using the given interactive channel
func NewApprover(reader io.Reader, writer io.Writer) *Approver {
	return &Approver{reader: reader, writer: writer}
}

// Request shows the exact command to the user and asks for confirmation.
// Any answer not prefixed with "y"/"yes" (case-insensitive) is a denial.
// On approval it returns a single-use Ticket bound to that command string.
func (a *Approver) Request(commandLine string) (*Ticket, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fmt.Fprintf(a.writer, "About to run: %s\nProceed? [y/N] ", commandLine)

	scanner := bufio.NewScanner(a.reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read approval answer: %w", err)
		}
		return nil, ErrDenied // EOF counts as denial
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer != "y" && !strings.HasPrefix(answer, "yes") {
		return nil, ErrDenied
	}

	return &Ticket{command: commandLine}, nil
}

// Redeem consumes the ticket for the given command. It fails when the
// command differs from the approved string or when the ticket was already
// used; either way no execution may happen.
func (a *Approver) Redeem(ticket *Ticket, commandLine string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ticket == nil {
		return fmt.Errorf("no approval ticket: %w", ErrDenied)
	}
	if ticket.used {
		return ErrTicketUsed
	}
	if ticket.command != commandLine {
		return fmt.Errorf("%w: approved %q, offered %q", ErrTicketMismatch, ticket.command, commandLine)
	}
	ticket.used = true
	return nil
}
