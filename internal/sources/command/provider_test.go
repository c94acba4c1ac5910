package command

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestApprover(input string) (*Approver, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewApprover(strings.NewReader(input), out), out
}

func TestApprover_Approve(t *testing.T) {
	approver, out := newTestApprover("yes\n")

	ticket, err := approver.Request("date")
	if err != nil {
		t.Fatalf("Request() returned error: %v", err)
	}
	if ticket == nil {
		t.Fatal("Request() returned nil ticket on approval")
	}
	if !strings.Contains(out.String(), "date") {
		t.Errorf("prompt %q should show the exact command", out.String())
	}
}

func TestApprover_Denial(t *testing.T) {
	for _, answer := range []string{"n\n", "no\n", "\n", "maybe\n", "Y E S\n"} {
		approver, _ := newTestApprover(answer)
		_, err := approver.Request("date")
		if !errors.Is(err, ErrDenied) {
			t.Errorf("Request() with answer %q = %v, want ErrDenied", strings.TrimSpace(answer), err)
		}
	}
}

func TestApprover_CaseInsensitiveYes(t *testing.T) {
	for _, answer := range []string{"Y\n", "YES\n", "Yes\n", "yes please\n"} {
		approver, _ := newTestApprover(answer)
		if _, err := approver.Request("date"); err != nil {
			t.Errorf("Request() with answer %q returned error: %v", strings.TrimSpace(answer), err)
		}
	}
}

func TestApprover_EOFIsDenial(t *testing.T) {
	approver, _ := newTestApprover("")
	if _, err := approver.Request("date"); !errors.Is(err, ErrDenied) {
		t.Errorf("Request() at EOF = %v, want ErrDenied", err)
	}
}

func TestRedeem_SingleUse(t *testing.T) {
	approver, _ := newTestApprover("y\n")
	ticket, err := approver.Request("date")
	if err != nil {
		t.Fatalf("Request() returned error: %v", err)
	}

	if err := approver.Redeem(ticket, "date"); err != nil {
		t.Fatalf("first Redeem() returned error: %v", err)
	}
	if err := approver.Redeem(ticket, "date"); !errors.Is(err, ErrTicketUsed) {
		t.Errorf("second Redeem() = %v, want ErrTicketUsed", err)
	}
}

func TestRedeem_CommandMismatch(t *testing.T) {
	approver, _ := newTestApprover("y\n")
	ticket, err := approver.Request("date")
	if err != nil {
		t.Fatalf("Request() returned error: %v", err)
	}

	err = approver.Redeem(ticket, "date -u")
	if !errors.Is(err, ErrTicketMismatch) {
		t.Errorf("Redeem() with changed command = %v, want ErrTicketMismatch", err)
	}

	// The mismatch must not consume the ticket for the approved command
	if err := approver.Redeem(ticket, "date"); err != nil {
		t.Errorf("Redeem() of original command after mismatch returned error: %v", err)
	}
}

func TestRedeem_NilTicket(t *testing.T) {
	approver, _ := newTestApprover("")
	if err := approver.Redeem(nil, "date"); !errors.Is(err, ErrDenied) {
		t.Errorf("Redeem(nil) = %v, want ErrDenied", err)
	}
}

func TestPropose_Templates(t *testing.T) {
	p := New(nil, nil, slog.Default())

	cases := map[string]string{
		"What's the weather like?":    "wttr.in",
		"What time is it?":            "date",
		"What is my ip address?":      "ipify",
		"Any news headlines today?":   "date", // "today" matches the date template first
		"How much disk space is left?": "df -h",
	}
	for question, want := range cases {
		cmd, err := p.Propose(context.Background(), question)
		if err != nil {
			t.Errorf("Propose(%q) returned error: %v", question, err)
			continue
		}
		if !strings.Contains(cmd, want) {
			t.Errorf("Propose(%q) = %q, want command containing %q", question, cmd, want)
		}
	}
}

func TestPropose_NoTemplateNoModel(t *testing.T) {
	p := New(nil, nil, slog.Default())
	if _, err := p.Propose(context.Background(), "something entirely different"); err == nil {
		t.Error("Propose() without template or model should error")
	}
}

func TestRunCommand_DeniedBeforeExecution(t *testing.T) {
	approver, _ := newTestApprover("n\n")
	p := New(approver, nil, slog.Default())

	out, err := p.RunCommand(context.Background(), "date")
	if err != nil {
		t.Fatalf("RunCommand() returned error: %v", err)
	}
	if !strings.Contains(out, "cancelled") {
		t.Errorf("RunCommand() after denial = %q, want cancellation message", out)
	}
}

func TestRunCommand_DangerousNeverPrompts(t *testing.T) {
	approver, promptOut := newTestApprover("y\n")
	p := New(approver, nil, slog.Default())

	_, err := p.RunCommand(context.Background(), "rm -rf /")
	if err == nil {
		t.Fatal("RunCommand() should reject a dangerous command")
	}
	if promptOut.Len() != 0 {
		t.Errorf("approval prompt %q was shown before the safety check", promptOut.String())
	}
}

func TestExecute_RunsApprovedCommand(t *testing.T) {
	approver, _ := newTestApprover("y\n")
	p := New(approver, nil, slog.Default())

	out, err := p.RunCommand(context.Background(), "echo hello-from-test")
	if err != nil {
		t.Fatalf("RunCommand() returned error: %v", err)
	}
	if !strings.Contains(out, "hello-from-test") {
		t.Errorf("RunCommand() = %q, want echoed output", out)
	}
}

func TestExecute_ApprovalIdempotence(t *testing.T) {
	approver, _ := newTestApprover("y\n")
	p := New(approver, nil, slog.Default())

	ticket, err := approver.Request("echo once")
	if err != nil {
		t.Fatalf("Request() returned error: %v", err)
	}

	if _, err := p.Execute(context.Background(), ticket, "echo once"); err != nil {
		t.Fatalf("first Execute() returned error: %v", err)
	}

	// Second execution with the same ticket and no fresh approval is refused
	if _, err := p.Execute(context.Background(), ticket, "echo once"); !errors.Is(err, ErrTicketUsed) {
		t.Errorf("second Execute() = %v, want ErrTicketUsed", err)
	}
}

func TestCappedBuffer_BoundsStorageDuringWrites(t *testing.T) {
	b := &cappedBuffer{max: maxOutputSize}

	// Simulate a fast producer: far more data than the cap, in chunks.
	chunk := bytes.Repeat([]byte("z"), 64*1024)
	total := 0
	for total < 200*1024*1024 {
		n, err := b.Write(chunk)
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if n != len(chunk) {
			t.Fatalf("Write() = %d, want %d (short writes abort the producer)", n, len(chunk))
		}
		total += n

		if b.Len() > maxOutputSize {
			t.Fatalf("buffer holds %d bytes, cap is %d", b.Len(), maxOutputSize)
		}
	}

	if b.Len() != maxOutputSize {
		t.Errorf("buffer holds %d bytes, want exactly the %d cap", b.Len(), maxOutputSize)
	}
	if !strings.Contains(b.String(), "truncated") {
		t.Error("capped output should be marked truncated")
	}
}

func TestCappedBuffer_SmallOutputUntouched(t *testing.T) {
	b := &cappedBuffer{max: maxOutputSize}
	if _, err := b.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}
	if b.String() != "hello" {
		t.Errorf("String() = %q, want output below the cap unmodified", b.String())
	}
}

func TestExecute_OutputCappedDuringCapture(t *testing.T) {
	approver, _ := newTestApprover("y\n")
	p := New(approver, nil, slog.Default())

	// head is on the allowlist and produces well past the capture cap.
	commandLine := "head -c 5000000 /dev/zero"
	ticket, err := approver.Request(commandLine)
	if err != nil {
		t.Fatalf("Request() returned error: %v", err)
	}

	out, err := p.Execute(context.Background(), ticket, commandLine)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if len(out) > maxRawOutput+100 {
		t.Errorf("Execute() returned %d bytes, want display-bounded output", len(out))
	}
	if !strings.Contains(out, "truncated") {
		t.Errorf("Execute() = %q..., want truncation marker", out[:80])
	}
}

func TestExecute_FailureIsFormattedNotFatal(t *testing.T) {
	approver, _ := newTestApprover("y\n")
	p := New(approver, nil, slog.Default())

	out, err := p.RunCommand(context.Background(), "ls /definitely/not/a/path")
	if err != nil {
		t.Fatalf("RunCommand() should absorb execution faults, got error: %v", err)
	}
	if !strings.Contains(out, "Command failed") {
		t.Errorf("RunCommand() = %q, want formatted failure", out)
	}
}

func TestFormatOutput(t *testing.T) {
	cases := []struct {
		command string
		output  string
		want    string
	}{
		{"curl -s wttr.in/?format=3", "London: +12°C", "Weather: London: +12°C"},
		{"date", "Mon Jan 1 00:00:00 UTC 2026", "Current date/time: Mon Jan 1 00:00:00 UTC 2026"},
		{"curl -s api.ipify.org", "203.0.113.7", "Public IP address: 203.0.113.7"},
		{"uname -a", "Linux box 6.1", "System: Linux box 6.1"},
		{"hostname", "box", "Hostname: box"},
	}
	for _, tc := range cases {
		if got := FormatOutput(tc.command, tc.output); got != tc.want {
			t.Errorf("FormatOutput(%q) = %q, want %q", tc.command, got, tc.want)
		}
	}
}

func TestFormatOutput_ExchangeRates(t *testing.T) {
	payload := `{"base_code":"USD","rates":{"EUR":0.91,"GBP":0.78,"XXX":1.0}}`
	got := FormatOutput("curl -s open.er-api.com/v6/latest/USD", payload)
	if !strings.Contains(got, "base USD") || !strings.Contains(got, "EUR: 0.9100") {
		t.Errorf("FormatOutput() = %q, want labeled rates", got)
	}
}

func TestFormatOutput_NewsFeed(t *testing.T) {
	feed := `<rss><channel><item><title>First story</title></item><item><title>Second story</title></item></channel></rss>`
	got := FormatOutput("curl -s feeds.bbci.co.uk/news/rss.xml", feed)
	if !strings.Contains(got, "First story") || !strings.Contains(got, "Top headlines") {
		t.Errorf("FormatOutput() = %q, want headline list", got)
	}
}

func TestFormatOutput_FallbackTruncates(t *testing.T) {
	long := strings.Repeat("x", maxRawOutput+100)
	got := FormatOutput("ls -la", long)
	if !strings.Contains(got, "truncated") {
		t.Errorf("FormatOutput() should truncate long raw output")
	}
}
