package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/aretw0/qafizz"
	"github.com/aretw0/qafizz/pkg/core"
)

var (
	verbose    bool
	jsonLogs   bool
	adapter    string
	dsn        string
	configPath string

	// nb is opened in PersistentPreRunE for commands that need storage.
	nb     *qafizz.Notebook
	config qafizz.Config
	logger *slog.Logger
)

// noStorage marks commands that run without opening storage.
const noStorage = "no-storage"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qafizz",
	Short: "Session and notes store for the Qafizz dashboard",
	Long: `Qafizz keeps the signed-in user and their notes in a key/value store.
Storage is pluggable: a directory of files (default), SQLite, Postgres,
MongoDB or process memory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr(), verbose, jsonLogs)
		slog.SetDefault(logger)

		if cmd.Annotations[noStorage] == "true" {
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		config = cfg

		opts := append(cfg.Options(), qafizz.WithLogger(logger))
		nb, err = qafizz.New(cmd.Context(), cfg.DSN, opts...)
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.Adapter, err)
		}
		logger.Debug("storage ready", "adapter", cfg.Adapter)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if nb == nil {
			return nil
		}
		defer func() { nb = nil }()
		if c, ok := nb.Storage().(core.Closer); ok {
			return c.Close()
		}
		return nil
	},
}

// loadConfig resolves the config file (flag, then the enclosing workspace,
// then the working directory) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (qafizz.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return qafizz.Config{}, err
		}
		path = filepath.Join(wd, "qafizz.yaml")
		if ws, err := qafizz.FindWorkspace(wd); err == nil {
			path = ws.Config
		}
	}

	cfg, err := qafizz.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("adapter") {
		cfg.Adapter = adapter
	}
	if cmd.Flags().Changed("dsn") {
		cfg.DSN = dsn
	}
	return cfg, nil
}

// newLogger builds a slog logger backed by a zap core.
func newLogger(w io.Writer, verbose, jsonLogs bool) *slog.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if jsonLogs {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	zc := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return slog.New(zapslog.NewHandler(zc))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, memory, sqlite, postgres, mongo, none")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Adapter-specific location (directory, file, connection string or URI)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to qafizz.yaml (default: nearest one upwards)")
}
