package cli

import (
	"github.com/dmitrijs2005/catalog/internal/client/catalog"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/spf13/cobra"
)

type pageFlags struct {
	count int
	limit int
}

func (f *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "page size (default from config)")
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "stop after this many records, 0 for all")
}

func (a *App) collect(cmd *cobra.Command, q catalog.Query, limit int) error {
	if q.Count == 0 {
		q.Count = a.config.PageSize
	}

	var rs []*models.Record
	err := a.client.Each(cmd.Context(), q, limit, func(r *models.Record) error {
		rs = append(rs, r)
		return nil
	})
	if err != nil {
		return err
	}
	return a.printer().Records(rs)
}

func (a *App) listCmd() *cobra.Command {
	var f pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records ordered by title and release date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.collect(cmd, catalog.Query{Count: f.count}, f.limit)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *App) searchCmd() *cobra.Command {
	var f pageFlags
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Full-text search over records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.collect(cmd, catalog.Query{Count: f.count, Search: args[0]}, f.limit)
		},
	}
	f.bind(cmd)
	return cmd
}
