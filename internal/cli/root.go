package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"cargo-add/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "CARGO_ADD"

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		reportError(root.ErrOrStderr(), err)
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "cargo-add",
		Short:         "Add dependencies to a Cargo.toml manifest",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newAddCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("cargo-add")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/cargo-add")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse cargo-add config").
			WithCause(err)
	}
	log.Debug().Str("path", viper.ConfigFileUsed()).Msg("loaded config")
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !term.IsTerminal(int(os.Stderr.Fd())),
	})
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// exitCodeForError maps edit failures by kind: 2 for rejected requests,
// 3 for sources that cannot be read, 4 for lookups, 5 for manifest
// problems. Errors raised outside the
// editor (config, manifest I/O) fall back to their errbuilder code.
func exitCodeForError(err error) int {
	switch types.KindOf(err) {
	case types.ErrorKindConflictingDependencyKind,
		types.ErrorKindConflictingSource,
		types.ErrorKindOptionalNotAllowedForDevBuild,
		types.ErrorKindEmptyTarget,
		types.ErrorKindInvalidVersionRequirement,
		types.ErrorKindInvalidUpgradeStrategy,
		types.ErrorKindInvalidCrateName:
		return 2
	case types.ErrorKindUnsupportedSource:
		return 3
	case types.ErrorKindLookup:
		return 4
	case types.ErrorKindDocumentParse, types.ErrorKindTableConflict:
		return 5
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return 2
	case errbuilder.CodeFailedPrecondition, errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func reportError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "error: %s\n", errorMessage(err))
}

// errorMessage returns the innermost errbuilder message, prefixed with
// the crate the failure belongs to.
func errorMessage(err error) string {
	message := err.Error()
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		message = builder.Msg
	}
	var editErr *types.EditError
	if errors.As(err, &editErr) && editErr.Name != "" && !strings.Contains(message, editErr.Name) {
		message = editErr.Name + ": " + message
	}
	return message
}
