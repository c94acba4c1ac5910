package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

const (
	commandTimeout = 30 * time.Second
	maxOutputSize  = 1024 * 1024 // 1MB
)

// Provider converts data-fetch intents into single shell commands, gates
// them behind explicit user approval, and executes them with bounded time
// and output.
type Provider struct {
	approver *Approver
	logger   *slog.Logger
	llm      llm.Adapter
}

// New creates a command provider. The model adapter is used only as a
// fallback command generator when no template matches.
func New(approver *Approver, adapter llm.Adapter, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{approver: approver, llm: adapter, logger: logger}
}

// Init is trivial for this provider; the shell is always available
func (p *Provider) Init(_ context.Context) error {
	return nil
}

// commandTemplate maps question keywords to one fixed command.
// Evaluated in order; the first predicate match wins.
type commandTemplate struct {
	keywords []string
	command  string
}

var commandTemplates = []commandTemplate{
	{[]string{"weather", "temperature", "forecast"}, "curl -s wttr.in/?format=3"},
	{[]string{"time", "date", "today"}, "date"},
	{[]string{"my ip", "ip address", "network address"}, "curl -s api.ipify.org"},
	{[]string{"exchange rate", "currency", "dollar", "euro"}, "curl -s open.er-api.com/v6/latest/USD"},
	{[]string{"news", "headlines"}, "curl -s feeds.bbci.co.uk/news/rss.xml"},
	{[]string{"disk", "storage", "free space"}, "df -h"},
	{[]string{"memory", "ram"}, "free -h"},
	{[]string{"system info", "operating system", "kernel"}, "uname -a"},
	{[]string{"hostname"}, "hostname"},
	{[]string{"uptime"}, "uptime"},
}

// Propose maps a question to a shell command: deterministic templates
// first, model fallback second. The safety gate applies to both paths.
func (p *Provider) Propose(ctx context.Context, question string) (string, error) {
	lower := strings.ToLower(question)

	for _, tmpl := range commandTemplates {
		for _, kw := range tmpl.keywords {
			if strings.Contains(lower, kw) {
				return tmpl.command, nil
			}
		}
	}

	if p.llm == nil {
		return "", fmt.Errorf("no command template matched and no model is available")
	}

	resp, err := p.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: "You translate questions into a single safe, read-only shell command. Reply with the command only, no commentary, no pipes, no redirection.",
		Messages: []llm.Message{
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("model command generation failed: %w", err)
	}

	cmd := strings.TrimSpace(strings.Trim(resp.Content, "`"))
	if cmd == "" {
		return "", fmt.Errorf("model returned an empty command")
	}
	return cmd, nil
}

// Run is the provider's primary operation: propose, safety-check, obtain
// approval, execute once, and format. The safety check always runs before
// any approval prompt is shown.
func (p *Provider) Run(ctx context.Context, question string) (string, error) {
	commandLine, err := p.Propose(ctx, question)
	if err != nil {
		return "", err
	}
	return p.RunCommand(ctx, commandLine)
}

// RunCommand safety-checks, approves, and executes an explicit command line
func (p *Provider) RunCommand(ctx context.Context, commandLine string) (string, error) {
	if err := CheckSafety(commandLine); err != nil {
		return "", err
	}

	ticket, err := p.approver.Request(commandLine)
	if err != nil {
		if errors.Is(err, ErrDenied) {
			return "Command execution was cancelled by the user.", nil
		}
		return "", err
	}

	return p.Execute(ctx, ticket, commandLine)
}

// Execute redeems the approval ticket and runs the command through the
// shell, bounded by a wall-clock timeout and a captured-output cap. A
// command executes at most once per approval.
func (p *Provider) Execute(ctx context.Context, ticket *Ticket, commandLine string) (string, error) {
	if err := p.approver.Redeem(ticket, commandLine); err != nil {
		return "", err
	}

	execCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	// Chaining and redirection operators were rejected by the safety gate,
	// so the shell runs exactly one command.
	cmd := exec.CommandContext(execCtx, "sh", "-c", commandLine)

	// Output is capped while the command writes, not after it exits, so a
	// fast producer cannot balloon memory inside the timeout window.
	stdout := &cappedBuffer{max: maxOutputSize}
	stderr := &cappedBuffer{max: 1024}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	if stderr.Len() > 0 {
		// stderr alone is not a failure; many utilities write progress there
		p.logger.Debug("command wrote to stderr", "command", commandLine, "stderr", stderr.String())
	}

	if execCtx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Command timed out after %s: %s", commandTimeout, commandLine), nil
	}
	if err != nil {
		return fmt.Sprintf("Command failed: %v\nCommand was: %s", err, commandLine), nil
	}

	return FormatOutput(commandLine, stdout.String()), nil
}

// cappedBuffer accepts writes but stores at most max bytes; everything past
// the cap is counted and discarded.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if remaining := b.max - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
			b.truncated = true
		} else {
			b.buf.Write(p)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *cappedBuffer) Len() int {
	return b.buf.Len()
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n... (truncated)"
	}
	return b.buf.String()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "\n... (truncated)"
	}
	return s
}

// Description announces the capability for the decision engine
func (p *Provider) Description() string {
	return "Run a safe, read-only shell command to fetch live data (weather, date/time, public IP, exchange rates, news, system info). Every command requires explicit user approval before it runs."
}
