package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reece/issueplanner/pkg/bitbucket"
	"github.com/reece/issueplanner/pkg/config"
	"github.com/reece/issueplanner/pkg/planner"
	"github.com/reece/issueplanner/pkg/sync"
)

var (
	flagFile    string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "issueplanner",
		Short: "Mirror tracker issues into a GNOME Planner document",
		Long: `issueplanner pulls issues from the trackers declared in a Planner
document's properties and mirrors them into its task tree: one top-level
task per repository, milestone buckets beneath it, and one task per issue.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}
	root.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "planner file (overrides config)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newSyncCmd(), newTrackersCmd(), newConfigCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// plannerFile resolves the document path: flag > positional arg > config.
func plannerFile(cfg *config.Config, args []string) (string, error) {
	switch {
	case flagFile != "":
		return flagFile, nil
	case len(args) > 0:
		return args[0], nil
	case cfg.PlannerFile != "":
		return cfg.PlannerFile, nil
	}
	return "", fmt.Errorf("no planner file given; pass one or set planner_file in the config")
}

// bitbucketClient builds the issue source from configured credentials.
func bitbucketClient(ctx context.Context, cfg *config.Config) *bitbucket.Client {
	var opts []bitbucket.Option
	bb := cfg.Bitbucket
	if bb.BaseURL != "" {
		opts = append(opts, bitbucket.WithBaseURL(bb.BaseURL))
	}
	switch {
	case bb.Token != "":
		opts = append(opts, bitbucket.WithToken(ctx, bb.Token))
	case bb.Username != "":
		opts = append(opts, bitbucket.WithBasicAuth(bb.Username, bb.Password))
	}
	return bitbucket.NewClient(opts...)
}

// bbSource adapts the Bitbucket client to the synchronizer's issue source.
type bbSource struct {
	client *bitbucket.Client
}

func (s bbSource) Issues(ctx context.Context, owner, slug string) sync.IssueIterator {
	return s.client.Issues(ctx, owner, slug)
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [planner-file]",
		Short: "Sync tracker issues into the planner document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			path, err := plannerFile(cfg, args)
			if err != nil {
				return err
			}

			doc, err := planner.Load(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			source := bbSource{client: bitbucketClient(ctx, cfg)}
			syncer := sync.New(doc, source, slog.Default())

			// Save whatever synced even when some trackers failed; the
			// document is only left untouched on a clean failure.
			runErr := syncer.Run(ctx)
			if err := doc.Save(); err != nil {
				return err
			}
			slog.Info("planner document written", "file", path)
			return runErr
		},
	}
}

func newTrackersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trackers [planner-file]",
		Short: "List the trackers declared in the planner document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			path, err := plannerFile(cfg, args)
			if err != nil {
				return err
			}

			doc, err := planner.Load(path)
			if err != nil {
				return err
			}

			syncer := sync.New(doc, nil, slog.Default())
			for _, spec := range syncer.Trackers() {
				fmt.Printf("%s\t%s:%s/%s\n", spec.Prefix, spec.SCM, spec.Owner, spec.Slug)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	var (
		setFile     string
		setUsername string
		setPassword string
		setToken    string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update stored configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			changed := false
			if setFile != "" {
				cfg.PlannerFile = setFile
				changed = true
			}
			if setUsername != "" {
				cfg.Bitbucket.Username = setUsername
				changed = true
			}
			if setPassword != "" {
				cfg.Bitbucket.Password = setPassword
				changed = true
			}
			if setToken != "" {
				cfg.Bitbucket.Token = setToken
				changed = true
			}

			if changed {
				if err := config.Save(cfg); err != nil {
					return err
				}
			}

			path, _ := config.GetConfigPath()
			fmt.Printf("config: %s\n", path)
			fmt.Printf("planner_file: %s\n", cfg.PlannerFile)
			fmt.Printf("bitbucket username: %s\n", cfg.Bitbucket.Username)
			if cfg.Bitbucket.Token != "" {
				fmt.Println("bitbucket token: (set)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&setFile, "set-file", "", "set the default planner file")
	cmd.Flags().StringVar(&setUsername, "set-username", "", "set the Bitbucket username")
	cmd.Flags().StringVar(&setPassword, "set-password", "", "set the Bitbucket app password")
	cmd.Flags().StringVar(&setToken, "set-token", "", "set a Bitbucket OAuth token")
	return cmd
}
