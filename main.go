package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/contactbook/cli/api"
	"github.com/oaiiae/contactbook/cli/export"
	"github.com/oaiiae/contactbook/cli/logger"
	"github.com/oaiiae/contactbook/cli/menu"
	"github.com/oaiiae/contactbook/datastores"
)

const title = "Contact Book"

// Set at build time with -ldflags "-X main.version=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Each option is also read from SERVICE_<OPTION>,
// e.g. SERVICE_FILE or SERVICE_LOG_LEVEL.
type Options struct {
	File string `short:"f" doc:"contacts file" default:"./address-book.json"`

	LogLevel  string `doc:"log from debug, info, warn or error"`
	LogFile   string `doc:"append logs to file"`
	LogFormat string `doc:"format logs as text or json" default:"text"`

	Host            string `short:"H" doc:"serve: host to listen on"`
	Port            string `short:"p" doc:"serve: port to listen on"          default:"8888"`
	EndpointsPrefix string `          doc:"serve: mount endpoints at a prefix" default:"/api"`

	Format string `doc:"export: json, yaml or xlsx"          default:"json"`
	Output string `short:"o" doc:"export: write to file instead of stdout"`
}

func (o *Options) logger(console io.Writer) *slog.Logger {
	return logger.New(&logger.Options{Level: o.LogLevel, File: o.LogFile, Format: o.LogFormat}, console)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		hooks.OnStart(func() {
			logger := options.logger(os.Stderr)
			if err := interactive(options.File, logger); err != nil {
				logger.Error("contact book stopped", "err", err)
				os.Exit(1)
			}
		})
	})

	root := cli.Root()
	root.Use = "contactbook"
	root.Short = "Manage your contacts from an interactive menu"
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the contacts over a REST API",
			Args:  cobra.NoArgs,
			Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
				logger := options.logger(os.Stdout)
				if err := serve(cmd.Context(), options, logger); err != nil {
					logger.Error("server stopped", "err", err)
					os.Exit(1)
				}
			}),
		},
		&cobra.Command{
			Use:   "export",
			Short: "Export the contacts as json, yaml or xlsx",
			Args:  cobra.NoArgs,
			Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
				logger := options.logger(os.Stderr)
				if err := exportContacts(cmd.Context(), options, logger); err != nil {
					logger.Error("export failed", "err", err)
					os.Exit(1)
				}
			}),
		},
	)

	cli.Run()
}

func openStore(path string, logger *slog.Logger) (*datastores.ContactsFile, error) {
	store, err := datastores.OpenContactsFile(path)
	if err != nil {
		return nil, malformed(err, path, logger)
	}
	logger.Debug("contacts loaded", "path", path, "count", store.Len())
	return store, nil
}

// loadStore reads path without creating it.
func loadStore(path string, logger *slog.Logger) (*datastores.ContactsInmem, error) {
	store := datastores.NewContactsInmem()
	if err := store.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("contacts file does not exist", "path", path)
		}
		return nil, malformed(err, path, logger)
	}
	logger.Debug("contacts loaded", "path", path, "count", store.Len())
	return store, nil
}

func malformed(err error, path string, logger *slog.Logger) error {
	var perr *datastores.ParseError
	if errors.As(err, &perr) {
		logger.Error("contacts file is malformed, fix or move it away", "path", path)
	}
	return err
}

func interactive(path string, logger *slog.Logger) error {
	store, err := openStore(path, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	m := &menu.Menu{Store: store, In: os.Stdin, Out: os.Stdout, Logger: logger}
	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Debug("interrupted")
	return nil
}

func serve(ctx context.Context, options *Options, logger *slog.Logger) error {
	store, err := openStore(options.File, logger)
	if err != nil {
		return err
	}

	srv := api.NewServer(
		&api.ServerOptions{Host: options.Host, Port: options.Port, ReadHeaderTimeout: 15 * time.Second},
		api.NewRouter(&api.RouterOptions{EndpointsPrefix: options.EndpointsPrefix},
			title, version, revision, created, store, logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("could not shutdown the server", "err", err)
		}
	}()

	logger.Info("listening", "addr", srv.Addr, "file", store.Path())
	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to listen and serve: %w", err)
	}
	logger.Info("server closed")
	return nil
}

func exportContacts(ctx context.Context, options *Options, logger *slog.Logger) (err error) {
	store, err := loadStore(options.File, logger)
	if err != nil {
		return err
	}
	contacts, err := store.List(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if options.Output != "" && options.Output != "-" {
		f, ferr := os.Create(options.Output)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if err := export.Write(w, options.Format, contacts); err != nil {
		return err
	}
	logger.Debug("contacts exported", "format", options.Format, "count", len(contacts))
	return nil
}
