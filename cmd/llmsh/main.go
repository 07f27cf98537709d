package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/phildougherty/llmsh/config"
	"github.com/phildougherty/llmsh/jobs"
	"github.com/phildougherty/llmsh/llm"
	"github.com/phildougherty/llmsh/safety"
	"github.com/phildougherty/llmsh/session"
	"github.com/phildougherty/llmsh/shell"
)

func main() {
	providerFlag := flag.String("llm", "", "LLM provider: 'openai', 'anthropic', 'gemini', 'bedrock', or 'mock'")
	modelFlag := flag.String("model", "", "Model name to use")
	baseURLFlag := flag.String("base-url", "", "Override the provider endpoint (OpenAI-compatible servers)")
	logLevelFlag := flag.String("log-level", "", "Log level: 'debug', 'info', 'warn', or 'error'")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if *providerFlag != "" {
		cfg.LLMClient = *providerFlag
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *baseURLFlag != "" {
		cfg.BaseURL = *baseURLFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}

	logger := newLogger(cfg.LogLevel)

	client, err := newClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s client: %+v\n", cfg.LLMClient, err)
		os.Exit(1)
	}

	checker, err := safety.NewChecker(cfg.Safety)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in safety configuration: %+v\n", err)
		os.Exit(1)
	}

	sess, err := session.New(cfg.HistorySize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing session: %+v\n", err)
		os.Exit(1)
	}

	bridge := llm.NewBridge(client, cfg.Timeout(), cfg.HistoryWindow, logger)
	manager := jobs.NewManager(logger)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	sh := shell.New(cfg, sess, manager, bridge, checker, logger,
		os.Stdin, os.Stdout, os.Stderr, interactive)

	os.Exit(sh.Run())
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

func newClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMClient {
	case "openai":
		return llm.NewOpenAIClient(cfg.Model, cfg.BaseURL)
	case "anthropic":
		return llm.NewAnthropicClient(cfg.Model)
	case "gemini":
		return llm.NewGeminiClient(context.Background(), cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(context.Background(), cfg.Model)
	case "mock", "":
		return &llm.Mock{}, nil
	default:
		return nil, fmt.Errorf("unsupported llm client: %s", cfg.LLMClient)
	}
}
