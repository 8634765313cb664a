// Package app wires configuration, clients, storage, and services into a
// single application handle. Clients are constructed once here and passed
// by reference; nothing in the tree reaches for a global.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/tether/internal/clients/directory"
	"github.com/bobmcallan/tether/internal/clients/gemini"
	"github.com/bobmcallan/tether/internal/clients/provider"
	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/secrets"
	"github.com/bobmcallan/tether/internal/services/chat"
	"github.com/bobmcallan/tether/internal/services/linking"
	"github.com/bobmcallan/tether/internal/services/session"
	"github.com/bobmcallan/tether/internal/storage/surrealdb"
)

// App holds all initialized services and clients. It is the shared core
// behind cmd/tether-server and the handler tests.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	DirectoryClient  interfaces.DirectoryClient
	ProviderClient   interfaces.ProviderClient
	CompletionClient interfaces.CompletionClient
	SessionService   interfaces.SessionService
	LinkingService   interfaces.LinkingService
	ChatService      interfaces.ChatService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, clients, storage, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, TETHER_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("TETHER_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "tether.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/tether.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()

	directoryClient := directory.NewClient(config.Clients.Directory.AppID,
		directory.WithBaseURL(config.Clients.Directory.BaseURL),
		directory.WithLogger(logger),
		directory.WithRateLimit(config.Clients.Directory.RateLimit),
		directory.WithTimeout(config.Clients.Directory.GetTimeout()),
	)

	providerClient := provider.NewClient(
		config.Clients.Provider.TokenURL,
		config.Clients.Provider.ClientID,
		config.Clients.Provider.ClientSecret,
		provider.WithLogger(logger),
		provider.WithTimeout(config.Clients.Provider.GetTimeout()),
	)

	var completionClient interfaces.CompletionClient
	geminiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - chat will be unavailable")
	} else {
		geminiClient, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			completionClient = geminiClient
		}
	}

	// The codec stays nil when the key is unconfigured; the linking and
	// chat flows fail at the point of use rather than here.
	var codec *secrets.Codec
	if config.Auth.TokenCipherKey != "" {
		codec, err = secrets.NewCodec(config.Auth.TokenCipherKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize token codec: %w", err)
		}
	} else {
		logger.Warn().Msg("Token cipher key not configured - account linking will fail")
	}

	connectionStore := storageManager.ConnectionStore()
	sessionService := session.NewService(directoryClient, logger)
	linkingService := linking.NewService(sessionService, providerClient, connectionStore, codec, config, logger)
	chatService := chat.NewService(connectionStore, codec, completionClient, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		DirectoryClient:  directoryClient,
		ProviderClient:   providerClient,
		CompletionClient: completionClient,
		SessionService:   sessionService,
		LinkingService:   linkingService,
		ChatService:      chatService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
