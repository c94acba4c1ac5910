package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jvcostta/hiring-challenge-alpha/internal/agent"
	"github.com/jvcostta/hiring-challenge-alpha/internal/config"
)

var ErrExit = errors.New("exit requested")

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("cyan"))
	bannerStyle = lipgloss.NewStyle().Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("red"))
)

// REPL implements the interactive question loop
type REPL struct {
	agent   *agent.Agent
	config  *config.Config
	session *agent.Session
	sources []string // active capability names shown in the banner

	in  io.Reader
	out io.Writer
}

// New creates a new REPL over the given agent. sources names the
// capabilities that initialized successfully, for the welcome banner.
func New(a *agent.Agent, cfg *config.Config, sources []string) *REPL {
	return &REPL{
		agent:   a,
		config:  cfg,
		session: agent.NewSession(),
		sources: sources,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// Run starts the loop. It exits on /exit, /quit, or Ctrl+D (EOF).
func (r *REPL) Run(ctx context.Context) error {
	r.printBanner()

	scanner := bufio.NewScanner(r.in)

	for {
		fmt.Fprint(r.out, promptStyle.Render("> ")+" ")

		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := r.handleCommand(ctx, input); err != nil {
				if errors.Is(err, ErrExit) {
					fmt.Fprintln(r.out, "Goodbye.")
					break
				}
				fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
			}
			fmt.Fprintln(r.out)
			continue
		}

		// ProcessMessage never fails; failures arrive as readable text
		response := r.agent.ProcessMessage(ctx, r.session, input)
		fmt.Fprintln(r.out, response)
		fmt.Fprintln(r.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

func (r *REPL) printBanner() {
	fmt.Fprintln(r.out, bannerStyle.Render("Multi-source agent ready."))
	if len(r.sources) > 0 {
		fmt.Fprintln(r.out, subtleStyle.Render("Sources: "+strings.Join(r.sources, ", ")))
	}
	if name := r.agent.CurrentModelName(); name != "" {
		fmt.Fprintln(r.out, subtleStyle.Render("Model: "+name))
	}
	fmt.Fprintln(r.out, subtleStyle.Render("Type /help for commands."))
	fmt.Fprintln(r.out)
}

// handleCommand processes slash commands
func (r *REPL) handleCommand(ctx context.Context, input string) error {
	cmd := strings.TrimPrefix(input, "/")
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "model":
		return r.handleModelCommand(ctx)
	case "clear":
		r.session.Clear()
		fmt.Fprintln(r.out, "Conversation history cleared.")
		return nil
	case "stats":
		return r.handleStatsCommand()
	case "help":
		return r.handleHelpCommand()
	case "exit", "quit":
		return ErrExit
	default:
		return fmt.Errorf("unknown command: /%s. Type /help for available commands", parts[0])
	}
}

// handleModelCommand shows an interactive model selector and switches models
func (r *REPL) handleModelCommand(ctx context.Context) error {
	models := r.config.LLM.ModelNames()
	current := r.config.LLM.Current

	if len(models) == 0 {
		fmt.Fprintln(r.out, "No models configured in config.yaml")
		return nil
	}

	if len(models) == 1 {
		fmt.Fprintf(r.out, "Only one model configured: %s\n", current)
		return nil
	}

	selected, err := RunModelSelector(models, current)
	if err != nil {
		return fmt.Errorf("failed to run selector: %w", err)
	}

	if selected == "" {
		fmt.Fprintln(r.out, "Cancelled")
		return nil
	}

	if selected == current {
		fmt.Fprintf(r.out, "Already using %s\n", current)
		return nil
	}

	modelCfg, ok := r.config.LLM.Available[selected]
	if !ok {
		return fmt.Errorf("model %s not found in config", selected)
	}

	if err := r.agent.SwitchModel(ctx, modelCfg.Provider, modelCfg.Model, selected); err != nil {
		return fmt.Errorf("failed to switch model: %w", err)
	}

	r.config.LLM.Current = selected

	fmt.Fprintf(r.out, "\nSwitched to %s (%s/%s)\n", selected, modelCfg.Provider, modelCfg.Model)
	return nil
}

func (r *REPL) handleStatsCommand() error {
	fmt.Fprintf(r.out, "Session: %d messages, %d tokens (%d in / %d out)\n",
		len(r.session.Messages), r.session.TotalTokens,
		r.session.TotalInputTokens, r.session.TotalOutputTokens)
	return nil
}

func (r *REPL) handleHelpCommand() error {
	help := `Available commands:
  /model    - Switch LLM model
  /clear    - Clear conversation history
  /stats    - Show session token usage
  /help     - Show this help
  /exit     - Exit (or use Ctrl+D)
`
	fmt.Fprint(r.out, help)
	return nil
}
