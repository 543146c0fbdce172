// Command elm-pair runs the refactor daemon: it listens for editor
// connections, keeps a per-project export index current, and applies
// automatic reference-qualification fixes as the programmer edits imports.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viant/afs"

	"github.com/viant/elm-pair/config"
	"github.com/viant/elm-pair/internal/analysis"
	"github.com/viant/elm-pair/internal/compiler"
	"github.com/viant/elm-pair/internal/daemonlog"
	"github.com/viant/elm-pair/internal/project"
	"github.com/viant/elm-pair/internal/refactor"
	"github.com/viant/elm-pair/internal/transport"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, socket, elmBin, logLevel string

	cmd := &cobra.Command{
		Use:           "elm-pair",
		Short:         "elm-pair keeps Elm import statements consistent as you edit qualified references.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if socket != "" {
				cfg.Socket = socket
			}
			if elmBin != "" {
				cfg.ElmBin = elmBin
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&socket, "socket", "", `editor socket address, e.g. "unix:/tmp/elm-pair.sock" or "tcp:127.0.0.1:5679"`)
	flags.StringVar(&elmBin, "elm-bin", "", "path to the elm compiler executable")
	flags.StringVar(&logLevel, "log-level", "", "logrus level: debug, info, warn, error")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	daemonlog.Configure(cfg.LogLevel, cfg.JSONLogs)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	index := project.NewIndex()
	engine, err := refactor.NewEngine(index)
	if err != nil {
		return fmt.Errorf("elm-pair: building refactor engine: %w", err)
	}
	detector := project.NewDetector()

	fs := afs.New()
	loader, err := project.NewModuleLoader(fs)
	if err != nil {
		return fmt.Errorf("elm-pair: building module loader: %w", err)
	}
	deps := project.NewJSONDependencyReaderAt(fs, cfg.DependencyInterfaceFile)
	watcher, err := project.NewWatcher(loader, deps, index)
	if err != nil {
		return fmt.Errorf("elm-pair: starting file watcher: %w", err)
	}
	defer watcher.Close()

	compileDriver := compiler.NewSubprocessDriver(cfg.ElmBin)
	watcher.WithElmVersionCheck(compileDriver.Version)
	go watcher.Run(ctx, detector.RootFor)

	compileResults := make(chan compiler.Result, maxCompilationCandidates)
	compileTask := compiler.NewTask(compileDriver, compileResults)
	go func() {
		if err := compileTask.Run(ctx); err != nil && ctx.Err() == nil {
			daemonlog.L().WithError(err).Error("elm-pair: compilation task exited")
		}
	}()

	listener, err := listen(cfg.Socket)
	if err != nil {
		return fmt.Errorf("elm-pair: listening on %s: %w", cfg.Socket, err)
	}
	defer listener.Close()

	events := make(chan transport.Event, 64)
	server := transport.NewServer(listener, events)
	go func() {
		if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
			daemonlog.L().WithError(err).Error("elm-pair: editor server exited")
		}
	}()

	daemonlog.L().WithField("socket", cfg.Socket).Info("elm-pair: listening for editor connections")

	loop := analysis.NewLoop(engine, detector, watcher, compileTask)
	loop.Run(ctx, events, compileResults)
	return nil
}

const maxCompilationCandidates = 10

// listen parses an address of the form "unix:<path>" or "tcp:<addr>" and
// opens a listener for it.
func listen(address string) (net.Listener, error) {
	scheme, rest, ok := strings.Cut(address, ":")
	if !ok {
		return nil, fmt.Errorf("elm-pair: socket address %q must be of the form \"unix:<path>\" or \"tcp:<addr>\"", address)
	}
	switch scheme {
	case "unix":
		os.Remove(rest)
		return net.Listen("unix", rest)
	case "tcp":
		return net.Listen("tcp", rest)
	default:
		return nil, fmt.Errorf("elm-pair: unsupported socket scheme %q", scheme)
	}
}
