package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/atlasai/tripflow/internal/api"
	"github.com/atlasai/tripflow/internal/flow"
	"github.com/atlasai/tripflow/internal/genai"
	"github.com/atlasai/tripflow/internal/notify"
	"github.com/atlasai/tripflow/internal/providers"
	"github.com/atlasai/tripflow/internal/session"
	"github.com/atlasai/tripflow/internal/store"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for TripFlow state data
	DefaultStateDir = "/var/lib/tripflow"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "tripflow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("TripFlow failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("TripFlow exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL  string
	StateDir     string
	LLMProvider  string
	OpenAIKey    string
	GeminiKey    string
	FlightAPIKey string
	RapidAPIKey  string
	PlacesAPIKey string
	APIAddr      string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	llmProvider *string
	apiAddr     *string

	config Config
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StateDir:     os.Getenv("TRIPFLOW_STATE_DIR"),
		LLMProvider:  os.Getenv("LLM_PROVIDER"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		FlightAPIKey: os.Getenv("FLIGHT_API_KEY"),
		RapidAPIKey:  os.Getenv("RAPIDAPI_KEY"),
		PlacesAPIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		APIAddr:      os.Getenv("API_ADDR"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TRIPFLOW_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.LLMProvider == "" {
		config.LLMProvider = "openai"
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"TRIPFLOW_STATE_DIR", config.StateDir,
		"LLM_PROVIDER", config.LLMProvider,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"FLIGHT_API_KEY_SET", config.FlightAPIKey != "",
		"RAPIDAPI_KEY_SET", config.RapidAPIKey != "",
		"GOOGLE_PLACES_API_KEY_SET", config.PlacesAPIKey != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "Directory for TripFlow state data"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "Database DSN (Postgres URL or SQLite file path)"),
		llmProvider: flag.String("llm-provider", config.LLMProvider, "LLM provider: openai or gemini"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server listen address"),
	}
	flag.Parse()
	flags.config = config
	return flags
}

// newStore picks the storage backend from the DSN shape: Postgres URLs
// go to the Postgres store, anything else is treated as a SQLite path.
func newStore(dsn string) (store.Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// newLLMClient builds the configured completion client.
func newLLMClient(ctx context.Context, flags Flags) (genai.ClientInterface, error) {
	if *flags.llmProvider == "gemini" {
		return genai.NewGeminiClient(ctx, genai.WithAPIKey(flags.config.GeminiKey))
	}
	return genai.NewClient(genai.WithAPIKey(flags.config.OpenAIKey))
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	llm, err := newLLMClient(ctx, flags)
	if err != nil {
		return err
	}

	flights, err := providers.NewAviationStackClient(providers.WithAPIKey(flags.config.FlightAPIKey))
	if err != nil {
		return err
	}
	hotels, err := providers.NewBookingClient(providers.WithAPIKey(flags.config.RapidAPIKey))
	if err != nil {
		return err
	}
	attractions, err := providers.NewPlacesClient(providers.WithAPIKey(flags.config.PlacesAPIKey))
	if err != nil {
		return err
	}

	// SMS delivery is optional: without Twilio credentials the API runs
	// with notification disabled.
	var notifier notify.Notifier
	if twilio, err := notify.NewTwilioNotifier(); err != nil {
		slog.Info("Itinerary SMS delivery disabled", "reason", err)
	} else {
		notifier = twilio
	}

	engine := flow.NewEngine(llm, flights, hotels, attractions, nil)
	sessions := session.NewService(st)

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(engine, sessions, notifier, apiOpts...)

	slog.Info("Bootstrapping TripFlow",
		"llm_provider", *flags.llmProvider,
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"sms_enabled", notifier != nil)
	return server.Run(ctx)
}
