package main

import (
	"fmt"
	"os"

	"github.com/bdobrica/Juju/common/environment"
	"github.com/bdobrica/Juju/common/version"
	"github.com/bdobrica/Juju/internal/juju/app"
	"github.com/bdobrica/Juju/internal/juju/matrix"
	"github.com/bdobrica/Juju/internal/juju/memory"
	"github.com/bdobrica/Juju/internal/juju/observability"
)

func main() {
	fmt.Printf("Juju Chat Bot\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	observability.Setup(
		environment.StringOr("JUJU_LOG_LEVEL", "info"),
		environment.StringOr("JUJU_LOG_FORMAT", "text"),
	)

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	juju, err := app.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Juju: %v\n", err)
		os.Exit(1)
	}
	defer juju.Stop()

	if err := juju.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Juju: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from environment variables.
func loadConfig() (*app.Config, error) {
	homeserver, err := environment.RequiredString("MATRIX_HOMESERVER")
	if err != nil {
		return nil, err
	}
	userID, err := environment.RequiredString("MATRIX_USER_ID")
	if err != nil {
		return nil, err
	}
	accessToken, err := environment.RequiredString("MATRIX_ACCESS_TOKEN")
	if err != nil {
		return nil, err
	}
	apiKey, err := environment.RequiredString("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	return &app.Config{
		DatabasePath:   environment.StringOr("DATABASE_PATH", "./juju.db"),
		MemoryPath:     environment.StringOr("MEMORY_PATH", "./memory.json"),
		MemoryMaxTurns: environment.IntOr("MEMORY_MAX_TURNS", memory.DefaultMaxTurns),
		ChatLogPath:    environment.StringOr("CHAT_LOG_PATH", "./bot_logs.txt"),
		PersonaPath:    environment.StringOr("PERSONA_PATH", ""),
		GeminiAPIKey:   apiKey,
		GeminiModel:    environment.StringOr("GEMINI_MODEL", ""),
		Matrix: matrix.Config{
			Homeserver:  homeserver,
			UserID:      userID,
			AccessToken: accessToken,
			DisplayName: environment.StringOr("MATRIX_DISPLAY_NAME", "JUJU"),
			Rooms:       environment.StringSliceOr("MATRIX_ROOMS", nil),
		},
	}, nil
}
