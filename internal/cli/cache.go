package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the diagram and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached diagram and artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := cache.Open(ctx, cfg.Cache.CacheConfig())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := cache.Clear(ctx, store); err != nil {
				return err
			}
			printSuccess("Cleared %s cache", cfg.Cache.Backend)
			switch cfg.Cache.Backend {
			case cache.BackendFile:
				printKeyValue("Directory", cfg.Cache.Dir)
			case cache.BackendRedis:
				printKeyValue("Prefix", cfg.Cache.Prefix)
			case cache.BackendMongo:
				printKeyValue("Collection", cfg.Cache.MongoDatabase+"."+cfg.Cache.MongoCollection)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Dir)
			return nil
		},
	}
}
