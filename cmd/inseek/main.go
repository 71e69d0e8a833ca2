// Package main is the INSEEK client CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/cli"
	"github.com/inseek/inseek/internal/client"
	"github.com/inseek/inseek/internal/config"
	"github.com/inseek/inseek/internal/controller"
	"github.com/inseek/inseek/internal/history"
	"github.com/inseek/inseek/internal/server"
	"github.com/inseek/inseek/internal/storage"
	"github.com/inseek/inseek/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/inseek/config.yaml"

// exampleQuestions are shown before the first interaction, mirroring the
// service's own placeholder prompts.
var exampleQuestions = []string{
	"초본 신청서에 주민등록번호가 없으면 발급 가능한가?",
	"가족관계증명서 발급 조건은?",
	"전입신고 기한은?",
}

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "ask":
		runAsk()
	case "history":
		runHistory()
	case "serve":
		runServe()
	case "version", "--version", "-v":
		fmt.Printf("inseek version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the initialized client-side services.
type components struct {
	Storage    storage.Store
	History    *history.Store
	Controller *controller.Controller
}

func (c *components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	hist := history.NewStore(store, logger)
	hist.Load(context.Background())

	api := client.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)
	ctl := controller.New(api, hist, store, logger)
	return &components{Storage: store, History: hist, Controller: ctl}, nil
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: inseek ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), "\n질문 예시:\n")
	for _, q := range exampleQuestions {
		fmt.Fprintf(fs.Output(), "  inseek ask \"%s\"\n", q)
	}
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	streamFlag := fs.Bool("stream", false, "stream the answer incrementally (persisted as the new default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer comps.Close()

	// Ctrl-C cancels the in-flight interaction; a canceled ask keeps the
	// partial answer on screen and is not recorded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamExplicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "stream" {
			streamExplicit = true
		}
	})
	if streamExplicit {
		if err := comps.Controller.SetStreamingEnabled(ctx, *streamFlag); err != nil {
			logger.Warn("failed to persist streaming preference", zap.Error(err))
		}
	}
	streaming := comps.Controller.StreamingEnabled(ctx)

	var state controller.State
	if streaming && format == cli.OutputText {
		// Print answer chunks as they arrive, then the citations.
		printed := 0
		state = comps.Controller.Ask(ctx, question, func(s controller.State) {
			if len(s.Answer) > printed {
				fmt.Print(s.Answer[printed:])
				printed = len(s.Answer)
			}
		})
		if printed > 0 {
			fmt.Println()
		}
		if state.Err != "" {
			fmt.Printf("\n오류가 발생했습니다\n%s\n", state.Err)
		} else {
			if state.ElapsedSeconds > 0 {
				fmt.Printf("(%.1fs)\n", state.ElapsedSeconds)
			}
			cli.WriteCitations(os.Stdout, state.Citations)
		}
	} else {
		state = comps.Controller.Ask(ctx, question, nil)
		if err := cli.WriteResult(os.Stdout, state, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
	if state.Err != "" {
		os.Exit(1)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	show := fs.Int("show", -1, "replay the entry at this index (0 = newest)")
	remove := fs.Int("delete", -1, "delete the entry at this index (0 = newest)")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer comps.Close()
	ctx := context.Background()

	switch {
	case *remove >= 0:
		if err := comps.Controller.DeleteHistory(ctx, *remove); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted entry %d\n", *remove)
	case *show >= 0:
		state, ok := comps.Controller.SelectHistory(*show)
		if !ok {
			fmt.Fprintf(os.Stderr, "No history entry at index %d\n", *show)
			os.Exit(1)
		}
		if err := cli.WriteResult(os.Stdout, state, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	default:
		entries := comps.History.Entries()
		if err := cli.WriteHistory(os.Stdout, entries, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		if format == cli.OutputText {
			if bytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath); err == nil {
				fmt.Printf("\n%d entries, %d bytes on disk\n", len(entries), bytes)
			}
		}
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Bool("debug", debugMode),
	)

	comps, err := initComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	srv := server.NewServer(comps.Controller, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	comps.Controller.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printUsage() {
	fmt.Println(`inseek - 법령 기반 질의응답 클라이언트

Usage:
  inseek ask [flags] <question>   Ask a question
  inseek history [flags]          List, replay, or delete past interactions
  inseek serve [flags]            Start the local HTTP facade
  inseek version                  Show version
  inseek help                     Show this help

Ask Flags:
  --config string    Config file path (default: /usr/local/etc/inseek/config.yaml)
  --stream           Stream the answer incrementally; the choice is persisted
  --output string    Output format: text or json (default: text)

History Flags:
  --config string    Config file path
  --output string    Output format: text or json
  --show int         Replay the entry at this index (0 = newest)
  --delete int       Delete the entry at this index (0 = newest)

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Examples:
  inseek ask "전입신고 기한은?"
  inseek ask --stream 가족관계증명서 발급 조건은?
  inseek history
  inseek history --show 0
  inseek history --delete 3
  inseek serve`)
}
