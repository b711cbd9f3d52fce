package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/catalog/internal/server/models"
)

const (
	outputAuto  = "auto"
	outputJSON  = "json"
	outputTable = "table"
)

type printer interface {
	Records(rs []*models.Record) error
	Record(r *models.Record) error
}

type jsonPrinter struct{ w io.Writer }

func (p jsonPrinter) Records(rs []*models.Record) error {
	if rs == nil {
		rs = []*models.Record{}
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

func (p jsonPrinter) Record(r *models.Record) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

type tablePrinter struct{ w io.Writer }

func (p tablePrinter) Records(rs []*models.Record) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tGENRES")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Title, releaseDate(r), genreNames(r))
	}
	return tw.Flush()
}

func (p tablePrinter) Record(r *models.Record) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "Title\t%s\n", r.Title)
	fmt.Fprintf(tw, "Released\t%s\n", releaseDate(r))
	fmt.Fprintf(tw, "Genres\t%s\n", genreNames(r))
	if r.Tagline != nil {
		fmt.Fprintf(tw, "Tagline\t%s\n", *r.Tagline)
	}
	if r.Overview != nil {
		fmt.Fprintf(tw, "Overview\t%s\n", *r.Overview)
	}
	if r.ForeignURL != nil {
		fmt.Fprintf(tw, "URL\t%s\n", *r.ForeignURL)
	}
	fmt.Fprintf(tw, "Updated\t%s\n", r.Updated.Format("2006-01-02 15:04:05"))
	return tw.Flush()
}

func releaseDate(r *models.Record) string {
	if r.ReleaseDate == nil {
		return "-"
	}
	return r.ReleaseDate.String()
}

func genreNames(r *models.Record) string {
	names := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}
