package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagelines/storeapi/common/model"
	"github.com/pagelines/storeapi/modules/plapi"
	"github.com/pagelines/storeapi/modules/storefront"
)

func newLatestCmd() *cobra.Command {
	var draft bool
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest store feed as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf := storefront.NewStoreFront(current.client, current.cfg,
				storefront.WithLogger(current.logger))

			var feed model.Collection
			if draft {
				feed, _ = sf.Bootstrap(cmd.Context(), model.StaticDraft(model.DraftMode))
			} else {
				feed = sf.GetLatest(cmd.Context())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(feed)
		},
	}
	cmd.Flags().BoolVar(&draft, "draft", false, "load the feed the way draft mode bootstraps it")
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Read and write API cache entries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := plapi.CacheGet(cmd.Context(), current.client, args[0], nil)
			if data == nil {
				return fmt.Errorf("%s: not cached", args[0])
			}
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	})

	put := &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := cmd.Flags().GetDuration("ttl")
			if err != nil {
				return err
			}
			plapi.CachePut(current.client, []byte(args[1]), args[0], ttl)
			return nil
		},
	}
	put.Flags().Duration("ttl", plapi.DefaultTTL, "time to live; 0 keeps the entry forever")
	cmd.AddCommand(put)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plapi.CacheDelete(current.client, args[0])
			return nil
		},
	})
	return cmd
}

func newFlushDraftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-drafts",
		Short: "Delete the compiled draft caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			plapi.FlushDraftCaches(current.client)
			current.logger.Info("flushed draft caches", "keys", plapi.DraftCacheKeys)
			return nil
		},
	}
}
