package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/config"
	"github.com/feelsunbreeze/result_portal_tui/internal/logger"
	"github.com/feelsunbreeze/result_portal_tui/internal/session"
	"github.com/feelsunbreeze/result_portal_tui/internal/store"
)

type app struct {
	client *api.Client
	tokens store.TokenStore
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	log    zerolog.Logger
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"ping":        {"ping", runPing},
	"login":       {"login -id <student_id> [-password <password>]", runLogin},
	"register":    {"register -id <student_id> -name <name> -email <email> [-password <password>] [-role student|admin]", runRegister},
	"logout":      {"logout", runLogout},
	"whoami":      {"whoami", runWhoami},
	"subjects":    {"subjects", runSubjects},
	"students":    {"students", runStudents},
	"results":     {"results [-id <student_id>]", runResults},
	"add-result":  {"add-result -student <id> -subject <id|code> -marks <n> -semester <term> -year <yyyy>", runAddResult},
	"add-subject": {"add-subject -name <name> -code <code> [-credits <n>]", runAddSubject},
	"summary":     {"summary", runSummary},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: result_portal_cli <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// dispatch runs the named command and turns its error into the line shown
// to the user.
func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(a.out)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		usage(a.errOut)
		return fmt.Errorf("unknown command %q", args[0])
	}

	err := cmd.run(ctx, a, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		a.log.Debug().Err(err).Str("command", args[0]).Msg("Command failed")
		return errors.New(describe(err))
	}
	return nil
}

func describe(err error) string {
	switch {
	case api.IsTransport(err):
		return session.MsgNetworkError
	case api.Detail(err) != "":
		return api.Detail(err)
	default:
		return err.Error()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, "console", os.Stderr)
	log := logger.Get()

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "token path:", err)
		os.Exit(1)
	}

	a := &app{
		client: api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log.With().Str("component", "api").Logger()),
		tokens: store.NewFileStore(tokenPath),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		log:    log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.dispatch(ctx, os.Args[1:]); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
