package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/catalog/internal/client/catalog"
	"github.com/dmitrijs2005/catalog/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the catalog command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &App{out: out}

	var (
		configFile string
		server     string
		timeout    time.Duration
	)

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage movie records in the catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = server
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}

			switch a.output {
			case outputAuto, outputJSON, outputTable:
			default:
				return fmt.Errorf("unknown output %q: want auto, json or table", a.output)
			}

			a.config = cfg
			a.client = catalog.New(cfg.ServerURL, catalog.WithTimeout(cfg.Timeout))
			return nil
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "JSON or YAML config file")
	pf.StringVarP(&server, "server", "a", "", "catalog base URL (default from config)")
	pf.DurationVar(&timeout, "timeout", 0, "per-request timeout (default from config)")
	pf.StringVarP(&a.output, "output", "o", outputAuto, "output format: auto, json or table")

	root.AddCommand(
		a.listCmd(),
		a.searchCmd(),
		a.getCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
	)
	return root
}
