// Command folio chats with the portfolio persona from a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"folio-backend/internal/chatclient"
	"folio-backend/internal/models"
	"folio-backend/internal/profile"
	"folio-backend/internal/services"
)

const defaultURL = "http://localhost:8080/api/v1/chat"

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

type options struct {
	url         string
	profilePath string
	raw         bool
	localFilter bool
	timeout     time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Chat with the portfolio persona from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	url := os.Getenv("FOLIO_URL")
	if url == "" {
		url = defaultURL
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.url, "url", url, "chat endpoint URL (env FOLIO_URL)")
	flags.StringVar(&opts.profilePath, "profile", os.Getenv("PROFILE_PATH"), "profile YAML used for the greeting and local filter")
	flags.BoolVar(&opts.raw, "raw", false, "print replies as they stream, without markdown rendering")
	flags.BoolVar(&opts.localFilter, "local-filter", true, "refuse off-topic questions without calling the server")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "time limit for one reply")

	root.AddCommand(newAskCmd(opts), newChatCmd(opts))
	return root
}

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return s.ask(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return s.repl(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// session is one terminal conversation.
type session struct {
	orch    *chatclient.Orchestrator
	conv    *chatclient.Conversation
	out     io.Writer
	errOut  io.Writer
	render  func(string) string // nil prints chunks as they arrive
	timeout time.Duration
}

func newSession(opts *options, out, errOut io.Writer) (*session, error) {
	prof, err := profile.Load(opts.profilePath)
	if err != nil {
		return nil, err
	}

	var clientOpts []chatclient.Option
	if opts.localFilter {
		clientOpts = append(clientOpts, chatclient.WithRelevanceFilter(services.NewRelevanceFilter(prof)))
	}

	s := &session{
		orch:    chatclient.New(opts.url, clientOpts...),
		conv:    chatclient.NewConversation(chatclient.Greeting(prof.Name)),
		out:     out,
		errOut:  errOut,
		timeout: opts.timeout,
	}
	if !opts.raw && isTerminal(out) {
		s.render = markdownRenderer()
	}
	return s, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// markdownRenderer falls back to plain text when glamour cannot start.
func markdownRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(s string) string { return s + "\n" }
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s + "\n"
		}
		return out
	}
}

// ask sends one question and prints the reply. Failed replies are printed
// and returned as errors.
func (s *session) ask(ctx context.Context, question string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var printed, failure string
	cb := chatclient.Callbacks{
		OnChunk: func(chunk, accumulated string) {
			if s.render == nil {
				fmt.Fprint(s.out, chunk)
				printed = accumulated
			}
		},
		OnComplete: func(content string) {
			switch {
			case s.render != nil:
				fmt.Fprint(s.out, s.render(content))
			case printed == "":
				fmt.Fprintln(s.out, content)
			case strings.HasPrefix(content, printed):
				fmt.Fprintln(s.out, content[len(printed):])
			default:
				// the stream broke and the fallback answered in full
				fmt.Fprintf(s.out, "\n%s\n", content)
			}
			s.conv.Add(models.RoleUser, question)
			s.conv.Add(models.RoleAssistant, content)
		},
		OnError: func(message string) {
			failure = message
		},
	}

	s.orch.Send(ctx, question, cb, s.conv.History())

	if failure != "" {
		if printed != "" {
			fmt.Fprintln(s.out)
		}
		fmt.Fprintln(s.errOut, errorStyle.Render(failure))
		return errors.New(failure)
	}
	return nil
}

// repl reads questions line by line until EOF or /quit.
func (s *session) repl(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, s.conv.Greeting())
	fmt.Fprintln(s.out, dimStyle.Render("Commands: /reset clears the conversation, /tokens shows its size, /quit exits."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, promptStyle.Render("you › "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			s.conv.Reset()
			fmt.Fprintln(s.out, dimStyle.Render("Conversation cleared."))
			continue
		case "/tokens":
			fmt.Fprintln(s.out, dimStyle.Render(fmt.Sprintf("%d messages, about %d tokens", s.conv.Len(), s.conv.EstimatedTokens())))
			continue
		}

		// failures are already printed; keep the conversation going
		_ = s.ask(ctx, line)
	}
}
