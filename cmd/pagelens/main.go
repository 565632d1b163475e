package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"

	"github.com/pagelens/pagelens/internal/app"
	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/chat"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/fetcher"
	"github.com/pagelens/pagelens/internal/intent"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/page"
	"github.com/pagelens/pagelens/internal/scan"
	"github.com/pagelens/pagelens/internal/server"
	"github.com/pagelens/pagelens/internal/store"
	"github.com/pagelens/pagelens/internal/tools"
	"github.com/pagelens/pagelens/internal/webclient"
)

const usage = `usage: pagelens [flags] <command> [args]

commands:
  serve            run the HTTP API
  scan <url>...    scan one or more pages and print the results

flags:
`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	backend := flag.String("backend", "", "webclient backend override (nethttp or chromedp)")
	dbPath := flag.String("db", "", "session database path override")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.WebClient.Backend = *backend
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	// The server logs JSON lines; the interactive scan command gets the
	// styled terminal logger.
	var logger logging.Logger = logging.NewCharmLogger("pagelens")

	switch flag.Arg(0) {
	case "serve":
		logger = logging.NewStdoutLogger("pagelens")
		err = runServe(cfg, logger)
	case "scan":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "error: scan needs at least one URL")
			os.Exit(2)
		}
		err = runScan(cfg, logger, flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("exiting", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}

// buildSession constructs the full component graph. The returned cleanup
// closes the webclient and the database.
func buildSession(cfg config.Config, logger logging.Logger, persist bool) (*app.Session, func(), error) {
	wc, err := webclient.New(cfg.WebClient, logger)
	if err != nil {
		return nil, nil, err
	}

	f, err := fetcher.New(cfg.Fetcher, wc, nil, logger)
	if err != nil {
		wc.Close()
		return nil, nil, err
	}

	results := scan.NewResultStore()
	registry := assets.NewRegistry(logger)
	analyzer := page.NewAnalyzer(cfg.Page, logger)
	scanner := scan.NewService(cfg.Scan, f, analyzer, results, registry, logger)

	var classifier intent.Classifier = intent.NewRuleClassifier(intent.DefaultRules(), logger)
	if cfg.OpenAI.APIKey != "" {
		classifier, err = intent.NewOpenAIClassifier(cfg.OpenAI, classifier, logger)
		if err != nil {
			wc.Close()
			return nil, nil, err
		}
	}

	orchestrator := tools.NewOrchestrator(tools.AutoApprove{}, logger)
	tools.RegisterBuiltins(orchestrator, tools.Deps{
		Scanner: scanner,
		Results: results,
		Assets:  registry,
		Client:  wc,
		Logger:  logger,
	})

	var persister app.Persister
	var closeStore func() error
	if persist {
		st, err := store.New(cfg.Store, logger)
		if err != nil {
			wc.Close()
			return nil, nil, err
		}
		persister = st
		closeStore = st.Close
	}

	session, err := app.NewSession(app.Deps{
		Classifier:   classifier,
		Responder:    chat.NewResponder(nil),
		Conversation: chat.NewStore(),
		Orchestrator: orchestrator,
		Scanner:      scanner,
		Results:      results,
		Registry:     registry,
		Persister:    persister,
		Logger:       logger,
	})
	if err != nil {
		wc.Close()
		return nil, nil, err
	}

	cleanup := func() {
		wc.Close()
		if closeStore != nil {
			closeStore()
		}
	}
	return session, cleanup, nil
}

func runServe(cfg config.Config, logger logging.Logger) error {
	session, cleanup, err := buildSession(cfg, logger, true)
	if err != nil {
		return err
	}
	defer cleanup()

	session.Restore()

	srv := server.New(cfg.Server, session, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", logging.Field{Key: "signal", Value: sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func runScan(cfg config.Config, logger logging.Logger, urls []string) error {
	session, cleanup, err := buildSession(cfg, logger, false)
	if err != nil {
		return err
	}
	defer cleanup()

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Start()
	defer spin.Stop()

	results := session.StartScan(context.Background(), urls, func(url, stage string, percent int) {
		spin.Suffix = fmt.Sprintf(" %s: %s (%d%%)", url, stage, percent)
	})
	spin.Stop()

	for _, r := range results {
		if r.Status == model.ScanFailed {
			fmt.Printf("FAILED  %s: %s\n", r.URL, r.Error)
			continue
		}
		fmt.Printf("OK      %s\n", r.URL)
		if r.Title != "" {
			fmt.Printf("        title: %s\n", r.Title)
		}
		fmt.Printf("        links: %d, images: %d, scripts: %d, stylesheets: %d\n",
			len(r.Links), len(r.Images), len(r.Scripts), len(r.Stylesheets))
		if r.SEO != nil {
			fmt.Printf("        words: %d, h1: %d, h2: %d\n",
				r.SEO.WordCount, len(r.SEO.H1Tags), len(r.SEO.H2Tags))
		}
	}

	for _, a := range session.Assets() {
		fmt.Printf("asset   %-10s %s\n", a.Type, a.URL)
	}
	return nil
}
