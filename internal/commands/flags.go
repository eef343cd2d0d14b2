package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/ans"
	"github.com/colonyops/ans/internal/core/caller"
	"github.com/colonyops/ans/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Caller identity used for every service call.
	Bundle string
	UID    int
	UserID int
	System bool

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// App is opened in the Before hook and closed in the After hook
	App *ans.App
}

// IdentityFlags returns the global flags describing the calling application.
func (f *Flags) IdentityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bundle",
			Aliases:     []string{"b"},
			Usage:       "bundle name of the calling application",
			Sources:     cli.EnvVars("ANS_BUNDLE"),
			Value:       "com.example.cli",
			Destination: &f.Bundle,
		},
		&cli.IntFlag{
			Name:        "uid",
			Usage:       "uid of the calling application",
			Sources:     cli.EnvVars("ANS_UID"),
			Destination: &f.UID,
		},
		&cli.IntFlag{
			Name:        "user",
			Usage:       "user id of the calling application",
			Sources:     cli.EnvVars("ANS_USER"),
			Value:       int(caller.DefaultUserID),
			Destination: &f.UserID,
		},
		&cli.BoolFlag{
			Name:        "system",
			Usage:       "call with system privileges",
			Sources:     cli.EnvVars("ANS_SYSTEM"),
			Destination: &f.System,
		},
	}
}

// Identity returns the caller identity described by the flags.
func (f *Flags) Identity() caller.Identity {
	return caller.Identity{
		Bundle: f.Bundle,
		UID:    int32(f.UID),
		UserID: int32(f.UserID),
		System: f.System,
	}
}

// Caller returns ctx carrying the caller identity.
func (f *Flags) Caller(ctx context.Context) context.Context {
	return caller.With(ctx, f.Identity())
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "ans", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "ans")
}
