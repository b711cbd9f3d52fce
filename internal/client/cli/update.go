package cli

import (
	"fmt"

	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/spf13/cobra"
)

// updateParams sets only the flags given on the command line. Fields named
// in unset are sent as null.
func (f *recordFlags) updateParams(cmd *cobra.Command, unset []string) (models.UpdateParams, error) {
	var p models.UpdateParams
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = models.Some(f.title)
	}
	if changed("tagline") {
		p.Tagline = models.Some(f.tagline)
	}
	if changed("overview") {
		p.Overview = models.Some(f.overview)
	}
	if changed("url") {
		p.ForeignURL = models.Some(f.foreignURL)
	}
	if changed("release-date") {
		d, err := models.ParseDate(f.releaseDate)
		if err != nil {
			return p, err
		}
		p.ReleaseDate = models.Some(d)
	}
	if changed("genre") {
		p.Genres = models.Some(parseGenres(f.genres))
	}
	if changed("language") {
		ls, err := parseLanguages(f.languages)
		if err != nil {
			return p, err
		}
		p.SpokenLanguages = models.Some(ls)
	}
	if changed("country") {
		cs, err := parseCountries(f.countries)
		if err != nil {
			return p, err
		}
		p.ProductionCountries = models.Some(cs)
	}

	for _, name := range unset {
		switch name {
		case "tagline":
			p.Tagline = models.Null[string]()
		case "overview":
			p.Overview = models.Null[string]()
		case "url":
			p.ForeignURL = models.Null[string]()
		case "release-date":
			p.ReleaseDate = models.Null[models.Date]()
		default:
			return p, fmt.Errorf("cannot clear %q: want tagline, overview, url or release-date", name)
		}
	}
	return p, nil
}

func (a *App) updateCmd() *cobra.Command {
	var (
		f     recordFlags
		unset []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := f.updateParams(cmd, unset)
			if err != nil {
				return err
			}

			rec, err := a.client.Update(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return a.printer().Record(rec)
		},
	}

	f.bind(cmd)
	cmd.Flags().StringSliceVar(&unset, "clear", nil, "fields to unset: tagline, overview, url, release-date")
	return cmd
}
