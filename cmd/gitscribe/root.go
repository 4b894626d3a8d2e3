package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/anthropic"
	"github.com/gitscribe/gitscribe/config"
	"github.com/gitscribe/gitscribe/fs"
	"github.com/gitscribe/gitscribe/gemini"
	"github.com/gitscribe/gitscribe/git"
	"github.com/gitscribe/gitscribe/history"
	"github.com/gitscribe/gitscribe/lmstudio"
	"github.com/gitscribe/gitscribe/logging"
	"github.com/gitscribe/gitscribe/ollama"
	"github.com/gitscribe/gitscribe/openai"
	"github.com/gitscribe/gitscribe/prompt"
	"github.com/gitscribe/gitscribe/provider"
	"github.com/gitscribe/gitscribe/templates"
)

type rootOptions struct {
	verbose  bool
	provider string
	noCache  bool
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "gitscribe",
		Short:         "Generate commit messages and PR descriptions from your changes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&opts.provider, "provider", "p", "", "override the configured provider")
	cmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "bypass the response cache")

	cmd.AddCommand(
		newCommitCmd(stdout, opts),
		newPRCmd(stdout, opts),
		newConfigCmd(stdout),
		newProvidersCmd(stdout, opts),
		newTemplatesCmd(stdout),
		newHistoryCmd(stdout),
	)
	return cmd
}

func newCommitCmd(stdout io.Writer, opts *rootOptions) *cobra.Command {
	var (
		template         string
		includeUntracked bool
		autoCommit       bool
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Generate a commit message from the staged changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := buildApp(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = app.Log.Sync() }()

			message, err := app.CommitMessage(ctx, CommitOptions{
				Template:         template,
				IncludeUntracked: includeUntracked,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, message)

			if autoCommit {
				if err := app.CommitChanges(ctx, message); err != nil {
					return err
				}
				fmt.Fprintln(stdout, "\nCommit created.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "commit template name")
	cmd.Flags().BoolVarP(&includeUntracked, "include-untracked", "u", false, "treat untracked files as additions")
	cmd.Flags().BoolVarP(&autoCommit, "commit", "c", false, "create the commit with the generated message")
	return cmd
}

func newPRCmd(stdout io.Writer, opts *rootOptions) *cobra.Command {
	var (
		template string
		base     string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Generate a pull request description for the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := buildApp(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = app.Log.Sync() }()

			description, err := app.PRDescription(ctx, PROptions{
				Template:   template,
				BaseBranch: base,
			})
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, []byte(description+"\n"), 0o644); err != nil {
					return errors.Wrapf(err, "write %s", output)
				}
				fmt.Fprintf(stdout, "Wrote %s\n", output)
				return nil
			}
			fmt.Fprintln(stdout, description)
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "pull request template name")
	cmd.Flags().StringVarP(&base, "base", "b", "main", "base branch to compare against")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the description to a file instead of stdout")
	return cmd
}

func newConfigCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the user config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteUserConfig(config.Default())
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Created %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective merged configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprint(stdout, string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			layers := config.DefaultLayers(repoRootOrCwd())
			fmt.Fprintf(stdout, "user:    %s\n", layers.User)
			if layers.Team != "" {
				fmt.Fprintf(stdout, "team:    %s\n", layers.Team)
			}
			fmt.Fprintf(stdout, "project: %s\n", layers.Project)
			return nil
		},
	})

	return cmd
}

func newProvidersCmd(stdout io.Writer, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect generation providers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Check the health of every provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			active := cfg.Provider
			if opts.provider != "" {
				active = opts.provider
			}

			registry := newRegistry()
			checks := registry.CheckAll(cmd.Context(), func(name string) provider.Settings {
				return settingsFor(cfg, name)
			})
			for _, check := range checks {
				status := "unavailable"
				if check.Healthy {
					status = "ok"
				}
				marker := " "
				if check.Name == active {
					marker = "*"
				}
				fmt.Fprintf(stdout, "%s %-10s %s  (model: %s)\n",
					marker, check.Name, status, cfg.Providers[check.Name].Model)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "models NAME",
		Short: "List the models a provider offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			name := args[0]
			gen, err := newRegistry().New(cmd.Context(), name, settingsFor(cfg, name))
			if err != nil {
				return err
			}
			models, err := gen.Models(cmd.Context())
			if err != nil {
				return err
			}
			for _, model := range models {
				fmt.Fprintln(stdout, model)
			}
			return nil
		},
	})

	return cmd
}

func newTemplatesCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect prompt templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			renderer := templates.NewRenderer(templateSearchPaths(cfg, repoRootOrCwd())...)
			infos, err := renderer.List()
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(stdout, "%s/%s  (%s)\n", info.Category, info.Name, info.Source)
			}
			return nil
		},
	})

	return cmd
}

func newHistoryCmd(stdout io.Writer) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := history.NewStore(history.DefaultPath())
			records, err := store.Last(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(stdout, "No history yet.")
				return nil
			}
			for _, r := range records {
				subject := r.Message
				if i := strings.IndexByte(subject, '\n'); i >= 0 {
					subject = subject[:i]
				}
				fmt.Fprintf(stdout, "%s  %-6s %-10s %s\n",
					r.Timestamp.Local().Format("2006-01-02 15:04"),
					r.Category, r.Provider, subject)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries to show")
	return cmd
}

// buildApp opens the repository and wires the full pipeline.
func buildApp(ctx context.Context, opts *rootOptions) (*App, error) {
	log := logging.New(opts.verbose)

	client, err := git.Open(".")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.DefaultLayers(client.Root()))
	if err != nil {
		return nil, err
	}

	gen, err := buildGenerator(ctx, cfg, opts.provider)
	if err != nil {
		return nil, err
	}
	if !opts.noCache {
		gen = fs.NewGenerator(gen, fs.DefaultCacheDir())
	}

	return &App{
		VCS:       client,
		Config:    cfg,
		Renderer:  templates.NewRenderer(templateSearchPaths(cfg, client.Root())...),
		Generator: gen,
		Composer:  prompt.NewComposer(),
		History:   history.NewStore(history.DefaultPath()),
		Log:       log,
	}, nil
}

// buildGenerator constructs the selected provider, falling back through
// the configured chain when it is unhealthy. An explicit override skips
// the fallback chain.
func buildGenerator(ctx context.Context, cfg *config.Config, override string) (gitscribe.Generator, error) {
	registry := newRegistry()
	settings := func(name string) provider.Settings { return settingsFor(cfg, name) }

	if override != "" {
		gen, err := registry.New(ctx, override, settings(override))
		if err != nil {
			return nil, err
		}
		if !gen.HealthCheck(ctx) {
			return nil, errors.Mark(
				errors.Newf("provider %q failed its health check", override),
				gitscribe.ErrProviderUnavailable)
		}
		return gen, nil
	}

	chain := append([]string{cfg.Provider}, cfg.Fallbacks...)
	return registry.NewWithFallback(ctx, chain, settings)
}

// newRegistry registers every supported provider.
func newRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register("ollama", func(ctx context.Context, s provider.Settings) (gitscribe.Generator, error) {
		return ollama.New(s), nil
	})
	registry.Register("openai", func(ctx context.Context, s provider.Settings) (gitscribe.Generator, error) {
		return openai.New(s), nil
	})
	registry.Register("anthropic", func(ctx context.Context, s provider.Settings) (gitscribe.Generator, error) {
		return anthropic.New(s), nil
	})
	registry.Register("lmstudio", func(ctx context.Context, s provider.Settings) (gitscribe.Generator, error) {
		return lmstudio.New(s), nil
	})
	registry.Register("gemini", func(ctx context.Context, s provider.Settings) (gitscribe.Generator, error) {
		client, err := gemini.NewClient(ctx, s.APIKey)
		if err != nil {
			return nil, errors.Mark(
				errors.Wrap(err, "create gemini client"),
				gitscribe.ErrProviderUnavailable)
		}
		return gemini.NewGenerator(client, s), nil
	})
	return registry
}

// settingsFor converts a configuration section to provider settings.
func settingsFor(cfg *config.Config, name string) provider.Settings {
	p := cfg.Providers[name]
	return provider.Settings{
		BaseURL:     p.BaseURL,
		Model:       p.Model,
		APIKey:      p.APIKey,
		Timeout:     time.Duration(p.Timeout) * time.Second,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		MaxRetries:  p.MaxRetries,
		RetryDelay:  time.Duration(p.RetryDelay) * time.Second,
	}
}

// templateSearchPaths orders custom template locations ahead of the
// builtins: explicit config paths, then the project directory, then the
// user directory.
func templateSearchPaths(cfg *config.Config, repoRoot string) []string {
	paths := append([]string{}, cfg.Templates.SearchPaths...)
	if repoRoot != "" {
		paths = append(paths, filepath.Join(repoRoot, ".gitscribe", "templates"))
	}
	paths = append(paths, filepath.Join(config.UserConfigDir(), "templates"))
	return paths
}

// loadConfig loads the layered configuration, using the repository root
// for the project layer when one is found.
func loadConfig() (*config.Config, error) {
	return config.Load(config.DefaultLayers(repoRootOrCwd()))
}

// repoRootOrCwd finds the enclosing repository root, or falls back to the
// working directory for commands that run outside a repository.
func repoRootOrCwd() string {
	if client, err := git.Open("."); err == nil {
		return client.Root()
	}
	return "."
}

// hint suggests a remedy for well-known failure kinds. Returns an empty
// string when there is nothing useful to add.
func hint(err error) string {
	switch {
	case errors.Is(err, gitscribe.ErrNoChanges):
		return "Stage your changes with `git add`, or pass --include-untracked."
	case errors.Is(err, gitscribe.ErrInvalidRepository):
		return "Run gitscribe from inside a git repository."
	case errors.Is(err, gitscribe.ErrProviderUnavailable):
		return "Check that the provider is running and configured; `gitscribe providers status` shows their health."
	case errors.Is(err, gitscribe.ErrGenerationTimeout):
		return "Increase the provider timeout in the configuration, or try a smaller change set."
	case errors.Is(err, gitscribe.ErrTemplateNotFound):
		return "`gitscribe templates list` shows the available template names."
	case errors.Is(err, gitscribe.ErrInvalidConfig):
		return "Check the configuration files; `gitscribe config path` shows their locations."
	}
	return ""
}
