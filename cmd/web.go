/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/indivolabs/db"
	"github.com/humaidq/indivolabs/indivo"
	"github.com/humaidq/indivolabs/labs"
	"github.com/humaidq/indivolabs/routes"
	"github.com/humaidq/indivolabs/static"
	"github.com/humaidq/indivolabs/templates"
)

const (
	variantJSON = "json"
	variantXML  = "xml"

	sessionCookieName = "indivolabs_session"
	shutdownTimeout   = 10 * time.Second
)

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the web server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "port",
			Value: "8080",
			Usage: "the web server port",
		},
		&cli.StringFlag{
			Name:    "indivo-api-url",
			Sources: cli.EnvVars("INDIVO_API_URL"),
			Usage:   "base URL of the Indivo API server (e.g., https://indivo.example.org:8000)",
		},
		&cli.StringFlag{
			Name:    "indivo-ui-url",
			Sources: cli.EnvVars("INDIVO_UI_URL"),
			Usage:   "base URL of the Indivo UI server that hosts the authorization page",
		},
		&cli.StringFlag{
			Name:    "consumer-key",
			Sources: cli.EnvVars("INDIVO_CONSUMER_KEY"),
			Usage:   "OAuth consumer key registered for this app",
		},
		&cli.StringFlag{
			Name:    "consumer-secret",
			Sources: cli.EnvVars("INDIVO_CONSUMER_SECRET"),
			Usage:   "OAuth consumer secret registered for this app",
		},
		&cli.StringFlag{
			Name:    "app-id",
			Sources: cli.EnvVars("INDIVO_APP_ID"),
			Usage:   "app id used to request long-lived record tokens (e.g., labs@apps.indivo.org)",
		},
		&cli.StringFlag{
			Name:    "api-variant",
			Sources: cli.EnvVars("LABS_API_VARIANT"),
			Value:   variantJSON,
			Usage:   "lab API flavour: json (LabResult reports) or xml (minimal labs report)",
		},
		&cli.DurationFlag{
			Name:    "remote-timeout",
			Sources: cli.EnvVars("INDIVO_TIMEOUT"),
			Value:   indivo.DefaultTimeout,
			Usage:   "timeout for each call to the Indivo API",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Sources: cli.EnvVars("DATABASE_URL"),
			Usage:   "optional PostgreSQL connection string for persistent sessions",
		},
		&cli.StringFlag{
			Name:    "csrf-secret",
			Sources: cli.EnvVars("CSRF_SECRET"),
			Usage:   "secret used to sign CSRF tokens",
		},
		&cli.BoolFlag{
			Name:  "dev",
			Value: false,
			Usage: "enables development mode (insecure cookies)",
		},
	},
	Action: start,
}

type serverConfig struct {
	Port        string
	Indivo      indivo.Config
	APIVariant  string
	DatabaseURL string
	CSRFSecret  string
	Dev         bool
}

func configFromCommand(cmd *cli.Command) (serverConfig, error) {
	cfg := serverConfig{
		Port: cmd.String("port"),
		Indivo: indivo.Config{
			APIBase:        strings.TrimSpace(cmd.String("indivo-api-url")),
			UIBase:         strings.TrimSpace(cmd.String("indivo-ui-url")),
			ConsumerKey:    strings.TrimSpace(cmd.String("consumer-key")),
			ConsumerSecret: strings.TrimSpace(cmd.String("consumer-secret")),
			AppID:          strings.TrimSpace(cmd.String("app-id")),
			Timeout:        cmd.Duration("remote-timeout"),
		},
		APIVariant:  strings.ToLower(strings.TrimSpace(cmd.String("api-variant"))),
		DatabaseURL: strings.TrimSpace(cmd.String("database-url")),
		CSRFSecret:  strings.TrimSpace(cmd.String("csrf-secret")),
		Dev:         cmd.Bool("dev"),
	}

	return cfg, cfg.validate()
}

func (cfg serverConfig) validate() error {
	switch {
	case cfg.Indivo.APIBase == "":
		return errIndivoAPIURLRequired
	case cfg.Indivo.UIBase == "":
		return errIndivoUIURLRequired
	case cfg.Indivo.ConsumerKey == "" || cfg.Indivo.ConsumerSecret == "":
		return errConsumerKeyRequired
	case cfg.CSRFSecret == "":
		return errCSRFSecretRequired
	case cfg.Indivo.Timeout <= 0:
		return errInvalidRemoteTimeout
	case cfg.APIVariant != variantJSON && cfg.APIVariant != variantXML:
		return fmt.Errorf("%w: %q", errInvalidAPIVariant, cfg.APIVariant)
	}

	return nil
}

// newLabSource picks the lab API flavour the server talks to.
func newLabSource(variant string, client *indivo.Client) (labs.LabSource, error) {
	switch variant {
	case variantJSON:
		return labs.NewJSONSource(client), nil
	case variantXML:
		return labs.NewXMLSource(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", errInvalidAPIVariant, variant)
	}
}

func sessionOptions(cfg serverConfig) session.Options {
	// Lax keeps the cookie on the top-level GET back from the authorization page.
	opts := session.Options{
		Cookie: session.CookieOptions{
			Name:     sessionCookieName,
			Secure:   !cfg.Dev,
			SameSite: http.SameSiteLaxMode,
		},
	}

	if cfg.DatabaseURL != "" {
		opts.Initer = db.PostgresSessionIniter()
		opts.Config = db.PostgresSessionConfig{}
	}

	return opts
}

func configureEmptyNotFoundHandler(f *flamego.Flame) {
	f.NotFound(func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
	})
}

// newWebApp assembles the middleware chain and routes around the controllers.
func newWebApp(cfg serverConfig, client *indivo.Client) (*flamego.Flame, error) {
	source, err := newLabSource(cfg.APIVariant, client)
	if err != nil {
		return nil, err
	}

	fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(session.Sessioner(sessionOptions(cfg)))
	f.Use(routes.RequestLogger)
	f.Use(routes.PrivacyHeaders())
	f.Use(csrf.Csrfer(csrf.Options{Secret: cfg.CSRFSecret}))
	f.Use(template.Templater(template.Options{
		FileSystem: fs,
	}))
	f.Use(flamego.Static(flamego.StaticOptions{
		FileSystem: http.FS(static.Static),
		Prefix:     "static",
	}))
	f.Use(routes.CSRFInjector())
	f.Use(routes.FlashInjector())
	f.Use(routes.ScopeContextInjector())

	f.Map(labs.NewHandshake(client))
	f.Map(labs.NewListing(source))
	f.Map(labs.NewDetail(client))

	f.Get("/", routes.Index)
	f.Get("/start_auth", routes.StartAuth)
	f.Get("/after_auth", routes.AfterAuth)
	f.Get("/labs", routes.ListLabs)
	f.Get("/lab/{id}", routes.ShowLab)
	f.Post("/logout", csrf.Validate, routes.Logout)

	configureEmptyNotFoundHandler(f)

	return f, nil
}

func start(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}

	if cfg.DatabaseURL != "" {
		appLogger.Info("Connecting to session database")
		if err := db.Init(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := db.SyncSchema(ctx); err != nil {
			return fmt.Errorf("failed to sync schema: %w", err)
		}
		appLogger.Info("Database schema synced")
	} else {
		appLogger.Warn("No database configured, sessions are kept in memory")
	}

	client := indivo.New(cfg.Indivo)

	f, err := newWebApp(cfg, client)
	if err != nil {
		return err
	}

	// A listing makes up to three remote calls before it writes.
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           f,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      3*cfg.Indivo.Timeout + 5*time.Second,
		ErrorLog:          requestStdLogger,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Starting web server", "port", cfg.Port, "api_variant", cfg.APIVariant, "indivo", cfg.Indivo.APIBase)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
