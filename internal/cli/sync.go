package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adnumaro/storyarn/pkg/syncer"
)

// configFn defers config loading until a command actually runs, so the
// --config flag is parsed first.
type configFn func() (Config, error)

// newSyncCmd creates the sync command with its push and pull subcommands.
func newSyncCmd(config configFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize a screenplay page with its flow graph",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push <page-id>",
		Short: "Regenerate the flow's synced nodes from the page tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), config, args[0], runPush)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pull <page-id>",
		Short: "Regenerate the page's synced elements from the flow graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), config, args[0], runPull)
		},
	})

	return cmd
}

// runSync opens the configured store, runs one sync direction and
// persists the result.
func runSync(ctx context.Context, config configFn, pageID string,
	direction func(ctx context.Context, s *syncer.Syncer, pageID string) error) error {

	cfg, err := config()
	if err != nil {
		return err
	}
	st, save, shutdown, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	logger := loggerFromContext(ctx)
	s := syncer.New(st, syncer.WithLogger(logger))

	if err := direction(ctx, s, pageID); err != nil {
		return err
	}
	return save()
}

func runPush(ctx context.Context, s *syncer.Syncer, pageID string) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	res, err := s.Push(ctx, pageID)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Pushed page %s to flow %s: %d nodes created, %d updated, %d deleted; %d connections created, %d deleted",
		pageID, res.FlowID,
		res.NodesCreated, res.NodesUpdated, res.NodesDeleted,
		res.ConnectionsCreated, res.ConnectionsDeleted))
	return nil
}

func runPull(ctx context.Context, s *syncer.Syncer, pageID string) error {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	res, err := s.Pull(ctx, pageID)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Pulled flow %s into page %s: %d elements created, %d updated, %d deleted; %d pages created",
		res.FlowID, pageID,
		res.ElementsCreated, res.ElementsUpdated, res.ElementsDeleted,
		res.PagesCreated))
	return nil
}

// newLinkCmd creates the link command associating a page with an existing flow.
func newLinkCmd(config configFn) *cobra.Command {
	return &cobra.Command{
		Use:   "link <page-id> <flow-id>",
		Short: "Link a page to an existing flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config()
			if err != nil {
				return err
			}
			st, save, shutdown, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			s := syncer.New(st, syncer.WithLogger(loggerFromContext(ctx)))
			if err := s.LinkToFlow(ctx, args[0], args[1]); err != nil {
				return err
			}
			loggerFromContext(ctx).Infof("Linked page %s to flow %s", args[0], args[1])
			return save()
		},
	}
}

// newUnlinkCmd creates the unlink command severing a page's flow association.
func newUnlinkCmd(config configFn) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <page-id>",
		Short: "Unlink a page from its flow, keeping both sides' content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config()
			if err != nil {
				return err
			}
			st, save, shutdown, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			s := syncer.New(st, syncer.WithLogger(loggerFromContext(ctx)))
			if err := s.UnlinkFlow(ctx, args[0]); err != nil {
				return err
			}
			loggerFromContext(ctx).Infof("Unlinked page %s", args[0])
			return save()
		},
	}
}
