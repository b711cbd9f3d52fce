package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/spf13/cobra"
)

// recordFlags are the editable fields shared by create and update.
type recordFlags struct {
	title       string
	releaseDate string
	tagline     string
	overview    string
	foreignURL  string
	genres      []string
	languages   []string
	countries   []string
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.title, "title", "t", "", "title")
	fl.StringVarP(&f.releaseDate, "release-date", "r", "", "release date, YYYY-MM-DD")
	fl.StringVar(&f.tagline, "tagline", "", "tagline")
	fl.StringVar(&f.overview, "overview", "", "overview")
	fl.StringVar(&f.foreignURL, "url", "", "external page of the movie")
	fl.StringSliceVarP(&f.genres, "genre", "g", nil, "genre name, repeatable")
	fl.StringSliceVar(&f.languages, "language", nil, "spoken language as code:name, repeatable")
	fl.StringSliceVar(&f.countries, "country", nil, "production country as code:name, repeatable")
}

func splitCodeName(v string) (code, name string, err error) {
	code, name, ok := strings.Cut(v, ":")
	if !ok || code == "" || name == "" {
		return "", "", fmt.Errorf("%q: want code:name", v)
	}
	return code, name, nil
}

func parseLanguages(vs []string) ([]models.Language, error) {
	out := make([]models.Language, 0, len(vs))
	for _, v := range vs {
		code, name, err := splitCodeName(v)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Language{Code: code, Name: name})
	}
	return out, nil
}

func parseCountries(vs []string) ([]models.Country, error) {
	out := make([]models.Country, 0, len(vs))
	for _, v := range vs {
		code, name, err := splitCodeName(v)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Country{Code: code, Name: name})
	}
	return out, nil
}

func parseGenres(vs []string) []models.GenreParams {
	out := make([]models.GenreParams, 0, len(vs))
	for _, v := range vs {
		out = append(out, models.GenreParams{Name: v})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (f *recordFlags) createParams() (models.CreateParams, error) {
	p := models.CreateParams{
		Title:      f.title,
		Tagline:    optional(f.tagline),
		Overview:   optional(f.overview),
		ForeignURL: optional(f.foreignURL),
		Genres:     parseGenres(f.genres),
	}

	if f.releaseDate != "" {
		d, err := models.ParseDate(f.releaseDate)
		if err != nil {
			return p, err
		}
		p.ReleaseDate = &d
	}

	var err error
	if p.SpokenLanguages, err = parseLanguages(f.languages); err != nil {
		return p, err
	}
	if p.ProductionCountries, err = parseCountries(f.countries); err != nil {
		return p, err
	}
	return p, nil
}

// prompt fills the basic fields interactively.
func (f *recordFlags) prompt(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	var err error
	if f.title, err = GetSimpleText(reader, "Title", out); err != nil {
		return err
	}
	if f.releaseDate, err = GetSimpleText(reader, "Release date (YYYY-MM-DD, empty if unknown)", out); err != nil {
		return err
	}
	f.overview, err = GetMultiline(reader, "Overview", out)
	return err
}

func readParamsFile(path string, stdin io.Reader) (models.CreateParams, error) {
	var p models.CreateParams

	r := stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return p, err
		}
		defer fh.Close()
		r = fh
	}

	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return p, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}

func (a *App) createCmd() *cobra.Command {
	var (
		f    recordFlags
		file string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from flags, a JSON file or interactive prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				params models.CreateParams
				err    error
			)

			switch {
			case file != "":
				params, err = readParamsFile(file, cmd.InOrStdin())
			case f.title == "":
				if err = f.prompt(cmd.InOrStdin(), cmd.ErrOrStderr()); err == nil {
					params, err = f.createParams()
				}
			default:
				params, err = f.createParams()
			}
			if err != nil {
				return err
			}

			rec, err := a.client.Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer().Record(rec)
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON create payload, - for stdin")
	return cmd
}
