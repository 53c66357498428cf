package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/x/term"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/shazow/wifiscout/internal/log"
	"github.com/shazow/wifiscout/wifi/cache"
	"github.com/shazow/wifiscout/wifi/controller"
	"github.com/shazow/wifiscout/wifi/darwin"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// backendConfig is what GetBackend needs from the root flags.
type backendConfig struct {
	Interface string
	FocusApp  string
}

// main is the entry point of the application
func main() {
	var (
		rootFlagSet = flag.NewFlagSet("wifiscout", flag.ExitOnError)
		iface       = rootFlagSet.String("interface", darwin.DefaultInterface, "wireless interface, or \"auto\" to detect it (env: WIFISCOUT_INTERFACE)")
		cachePath   = rootFlagSet.String("cache", "", "path to the scan cache file (default: user cache dir)")
		noCache     = rootFlagSet.Bool("no-cache", false, "do not persist scans between runs")
		focusApp    = rootFlagSet.String("focus-app", darwin.TerminalApp(os.Getenv("TERM_PROGRAM")), "application to refocus after a keychain prompt")
		logLevel    = rootFlagSet.String("log-level", "warn", "log level (debug, info, warn, error)")
		debug       = rootFlagSet.Bool("debug", false, "print recent log records when a command fails")
		version     = rootFlagSet.Bool("version", false, "display version")
		_           = rootFlagSet.String("config", "", "config file (optional)")
	)

	var c *controller.Controller

	listFlagSet := flag.NewFlagSet("list", flag.ExitOnError)
	listJSON := listFlagSet.Bool("json", false, "output in JSON format")
	listRefresh := listFlagSet.Bool("refresh", false, "ignore the cached scan")
	listCmd := &ffcli.Command{
		Name:       "list",
		ShortUsage: "wifiscout list [-json] [-refresh]",
		ShortHelp:  "List visible wifi networks, strongest first",
		FlagSet:    listFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			return runList(ctx, os.Stdout, os.Stderr, *listJSON, *listRefresh, c)
		},
	}

	showFlagSet := flag.NewFlagSet("show", flag.ExitOnError)
	showJSON := showFlagSet.Bool("json", false, "output in JSON format")
	showRefresh := showFlagSet.Bool("refresh", false, "ignore the cached scan")
	showCmd := &ffcli.Command{
		Name:       "show",
		ShortUsage: "wifiscout show [-json] <ssid>",
		ShortHelp:  "Show a wifi network",
		FlagSet:    showFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("show requires an ssid")
			}
			return runShow(ctx, os.Stdout, *showJSON, *showRefresh, args[0], c)
		},
	}

	connectFlagSet := flag.NewFlagSet("connect", flag.ExitOnError)
	connectPassphrase := connectFlagSet.String("passphrase", "", "passphrase for the network, instead of the saved one")
	connectSecurity := connectFlagSet.String("security", "wpa", "security type of a hidden network (open, wep, wpa)")
	connectHidden := connectFlagSet.Bool("hidden", false, "network is hidden and may not appear in scans")
	connectRefresh := connectFlagSet.Bool("refresh", false, "ignore the cached scan")
	connectCmd := &ffcli.Command{
		Name:       "connect",
		ShortUsage: "wifiscout connect [-passphrase <passphrase>] <ssid>",
		ShortHelp:  "Connect to a wifi network",
		FlagSet:    connectFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("connect requires an ssid")
			}
			opts := connectOptions{
				SSID:     args[0],
				Hidden:   *connectHidden,
				Security: *connectSecurity,
				Refresh:  *connectRefresh,
			}
			if isFlagSet(connectFlagSet, "passphrase") {
				opts.Password = connectPassphrase
			}
			if term.IsTerminal(os.Stdin.Fd()) {
				opts.Prompt = promptPassword
			}
			return runConnect(ctx, os.Stdout, opts, c)
		},
	}

	shareCmd := &ffcli.Command{
		Name:       "share",
		ShortUsage: "wifiscout share <ssid>",
		ShortHelp:  "Show a QR code for joining a saved network",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("share requires an ssid")
			}
			return runShare(ctx, os.Stdout, args[0], c)
		},
	}

	root := &ffcli.Command{
		ShortUsage:  "wifiscout [flags] <subcommand> [args...]",
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{listCmd, showCmd, connectCmd, shareCmd},
		Options: []ff.Option{
			ff.WithEnvVarPrefix("WIFISCOUT"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithAllowMissingConfigFile(true),
		},
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
	}

	if err := root.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *version {
		fmt.Println(Version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	logger := log.Init(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	exit := func(err error) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if *debug {
			fmt.Fprintln(os.Stderr, "\nrecent logs:")
			log.WriteLogs(os.Stderr, log.Logs())
		}
		os.Exit(1)
	}

	b, err := GetBackend(backendConfig{Interface: *iface, FocusApp: *focusApp}, logger)
	if err != nil {
		exit(err)
	}

	var store cache.Store
	if !*noCache {
		path := *cachePath
		if path == "" {
			path, err = cache.DefaultPath()
			if err != nil {
				logger.Warn("no cache directory, scans will not persist", "error", err)
			}
		}
		if path != "" {
			store = cache.FileStore{Path: path}
		}
	}

	c = controller.New(b, cache.New(store, logger), logger)
	c.Notify = printStatus(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := root.Run(ctx); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, ffcli.DefaultUsageFunc(root))
			os.Exit(2)
		}
		cancel()
		exit(err)
	}
}

// printStatus prints progress of a connection attempt. Resolved attempts are
// reported by the command itself.
func printStatus(w io.Writer) func(controller.Status) {
	return func(s controller.Status) {
		if s.Outcome != 0 {
			return
		}
		fmt.Fprintln(w, s.Message)
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(os.Stdin.Fd())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
