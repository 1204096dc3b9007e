package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cargo-add/internal/app"
	"cargo-add/internal/core"
	"cargo-add/internal/types"
)

type addOptions struct {
	Version          string
	Git              string
	Path             string
	Dev              bool
	Build            bool
	Optional         bool
	Target           string
	Upgrade          string
	ManifestPath     string
	RegistryURL      string
	RegistryIndex    string
	RegistryToken    string
	GitRawURL        string
	AllowPrerelease  bool
	LookupWorkers    int
	HTTPTimeout      int
	HTTPRetries      int
	HTTPRetryDelayMs int
	DryRun           bool
}

func newAddCommand() *cobra.Command {
	opts := addOptions{}
	cmd := &cobra.Command{
		Use:   "add <crate>... [flags]",
		Short: "Add dependencies to Cargo.toml",
		Long: `Add one or more dependencies to Cargo.toml.

A crate may be given as name, name@requirement, a local path or a git
URL. Without an explicit source the newest version is looked up in the
registry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "vers", "", "Version requirement to use")
	cmd.Flags().StringVar(&opts.Git, "git", "", "Git repository URL")
	cmd.Flags().StringVar(&opts.Path, "path", "", "Local crate path")
	cmd.Flags().BoolVarP(&opts.Dev, "dev", "D", false, "Add as a dev dependency")
	cmd.Flags().BoolVarP(&opts.Build, "build", "B", false, "Add as a build dependency")
	cmd.Flags().BoolVar(&opts.Optional, "optional", false, "Add as an optional dependency")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Add as a dependency of the given target platform")
	cmd.Flags().StringVar(&opts.Upgrade, "upgrade", "", "Requirement prefix for looked up versions (none, patch, minor, all)")
	cmd.Flags().StringVar(&opts.ManifestPath, "manifest-path", "", "Path to Cargo.toml or the directory to search from")
	cmd.Flags().StringVar(&opts.RegistryURL, "registry-url", "", "Registry web API base URL")
	cmd.Flags().StringVar(&opts.RegistryIndex, "registry-index", "", "Offline registry index file (YAML)")
	cmd.Flags().StringVar(&opts.RegistryToken, "registry-token", "", "Registry API token")
	cmd.Flags().StringVar(&opts.GitRawURL, "git-raw-url", "", "Base URL serving raw files of git repositories")
	cmd.Flags().BoolVar(&opts.AllowPrerelease, "allow-prerelease", false, "Consider pre-release versions in lookups")
	cmd.Flags().IntVar(&opts.LookupWorkers, "lookup-workers", 4, "Concurrent registry lookups")
	cmd.Flags().IntVar(&opts.HTTPTimeout, "http-timeout", 30, "HTTP timeout in seconds")
	cmd.Flags().IntVar(&opts.HTTPRetries, "http-retries", 3, "HTTP retry attempts")
	cmd.Flags().IntVar(&opts.HTTPRetryDelayMs, "http-retry-delay-ms", 200, "Base HTTP retry delay in milliseconds")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the updated manifest instead of writing it")

	_ = viper.BindPFlag("upgrade", cmd.Flags().Lookup("upgrade"))
	_ = viper.BindPFlag("manifest_path", cmd.Flags().Lookup("manifest-path"))
	_ = viper.BindPFlag("registry_url", cmd.Flags().Lookup("registry-url"))
	_ = viper.BindPFlag("registry_index", cmd.Flags().Lookup("registry-index"))
	_ = viper.BindPFlag("registry_token", cmd.Flags().Lookup("registry-token"))
	_ = viper.BindPFlag("git_raw_url", cmd.Flags().Lookup("git-raw-url"))
	_ = viper.BindPFlag("allow_prerelease", cmd.Flags().Lookup("allow-prerelease"))
	_ = viper.BindPFlag("lookup_workers", cmd.Flags().Lookup("lookup-workers"))
	_ = viper.BindPFlag("http_timeout", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.Flags().Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", cmd.Flags().Lookup("http-retry-delay-ms"))

	return cmd
}

func runAdd(ctx context.Context, cmd *cobra.Command, crates []string, opts addOptions) error {
	service := app.NewService()
	result, err := service.Add(ctx, buildAddRequest(cmd, crates, opts))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.DryRun {
		_, _ = fmt.Fprint(out, result.Document.String())
		return nil
	}
	for _, added := range result.Added {
		_, _ = fmt.Fprintf(out, "added %s to %s\n", added.Name, core.TableName(added.Table))
	}
	return nil
}

func buildAddRequest(cmd *cobra.Command, crates []string, opts addOptions) app.AddRequest {
	var target *string
	if flagChanged(cmd, "target") {
		value := opts.Target
		target = &value
	}
	return app.AddRequest{
		Edit: types.AddRequest{
			Crates:   crates,
			Dev:      opts.Dev,
			Build:    opts.Build,
			Optional: opts.Optional,
			Version:  opts.Version,
			Git:      opts.Git,
			Path:     opts.Path,
			Target:   target,
			Upgrade:  resolveString(cmd, opts.Upgrade, "upgrade", "upgrade"),
		},
		ManifestPath:     resolveString(cmd, opts.ManifestPath, "manifest_path", "manifest-path"),
		RegistryURL:      resolveString(cmd, opts.RegistryURL, "registry_url", "registry-url"),
		RegistryIndex:    resolveString(cmd, opts.RegistryIndex, "registry_index", "registry-index"),
		RegistryToken:    resolveString(cmd, opts.RegistryToken, "registry_token", "registry-token"),
		GitRawURL:        resolveString(cmd, opts.GitRawURL, "git_raw_url", "git-raw-url"),
		AllowPrerelease:  resolveBool(cmd, opts.AllowPrerelease, "allow_prerelease", "allow-prerelease"),
		LookupWorkers:    resolveInt(cmd, opts.LookupWorkers, "lookup_workers", "lookup-workers"),
		HTTPTimeoutSec:   resolveInt(cmd, opts.HTTPTimeout, "http_timeout", "http-timeout"),
		HTTPRetries:      resolveInt(cmd, opts.HTTPRetries, "http_retries", "http-retries"),
		HTTPRetryDelayMs: resolveInt(cmd, opts.HTTPRetryDelayMs, "http_retry_delay_ms", "http-retry-delay-ms"),
		DryRun:           opts.DryRun,
	}
}
