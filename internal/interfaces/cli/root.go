// Package cli implements the keyip command line. Single-target searches run
// in-process; library commands talk to an API server.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/client"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
	NoColor    bool
	Timeout    time.Duration
	Server     string
	APIKey     string
}

// LibraryAPI is the part of the API server used by the library commands.
type LibraryAPI interface {
	AddMolecule(ctx context.Context, req *types.AddMoleculeRequest) (*types.MoleculeResponse, error)
	Screen(ctx context.Context, libraryID string, req *types.ScreenRequest) (*types.ScreenResponse, error)
}

// CommandDependencies overrides what the root command would otherwise build
// from its flags. Nil fields are built on demand.
type CommandDependencies struct {
	Service screening.Service
	Logger  logging.Logger
	Library LibraryAPI
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Service screening.Service
	Logger  logging.Logger
	Options *RootOptions

	library LibraryAPI
	close   func()
}

// LibraryAPI returns the API client, dialing --server on first use.
func (c *CLIContext) LibraryAPI() (LibraryAPI, error) {
	if c.library != nil {
		return c.library, nil
	}
	cl, err := client.NewClient(c.Options.Server,
		client.WithAPIKey(c.Options.APIKey),
		client.WithTimeout(c.Options.Timeout),
		client.WithUserAgent("keyip-cli/"+Version),
	)
	if err != nil {
		return nil, err
	}
	c.library = cl.Library()
	return c.library, nil
}

// NewRootCommand creates the keyip command tree.
func NewRootCommand(deps CommandDependencies) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keyip",
		Short: "Substructure search over molfile targets",
		Long: "keyip matches substructure patterns against V2000 molfiles, reports ring\n" +
			"membership and aromaticity, and screens stored target libraries.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, deps)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil && cliCtx.close != nil {
				cliCtx.close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: KEYIP_* environment)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")
	pf.StringVar(&opts.Server, "server", "http://localhost:8080", "API server address for library commands")
	pf.StringVar(&opts.APIKey, "api-key", "", "API key sent as a bearer token")

	cmd.AddCommand(
		NewMatchCmd(),
		NewRingsCmd(),
		NewAromaticCmd(),
		NewStereoCmd(),
		NewLibraryCmd(),
		NewVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps CommandDependencies) error {
	switch opts.Output {
	case "text", "json":
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q", opts.Output))
	}
	if opts.NoColor {
		color.NoColor = true
	}

	logger := deps.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewLogger(logging.LogConfig{
			Level:            opts.LogLevel,
			Format:           "console",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		})
		if err != nil {
			return fmt.Errorf("logger initialization failed: %w", err)
		}
	}

	cliCtx := &CLIContext{
		Service: deps.Service,
		Logger:  logger,
		Options: opts,
		library: deps.Library,
	}
	if cliCtx.Service == nil {
		cfg, err := loadConfig(opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("config initialization failed: %w", err)
		}
		svc, err := screening.NewService(screening.Config{Search: cfg.Search}, screening.Dependencies{Logger: logger})
		if err != nil {
			return err
		}
		cliCtx.Service = svc
		cliCtx.close = svc.Close
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext bounds the command by --timeout.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Options.Timeout > 0 {
		return context.WithTimeout(cmd.Context(), cliCtx.Options.Timeout)
	}
	return context.WithCancel(cmd.Context())
}

// Execute runs the CLI with dependencies built from the flags.
func Execute() error {
	rootCmd := NewRootCommand(CommandDependencies{})
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

//Personal.AI order the ending
