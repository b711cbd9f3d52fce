package cli

import (
	"io"
	"os"

	"github.com/dmitrijs2005/catalog/internal/client/catalog"
	"github.com/dmitrijs2005/catalog/internal/client/config"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal on stdout.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

type App struct {
	config *config.Config
	client *catalog.Client
	output string
	out    io.Writer
}

func (a *App) printer() printer {
	switch a.output {
	case outputJSON:
		return jsonPrinter{w: a.out}
	case outputTable:
		return tablePrinter{w: a.out}
	}
	if isTerminal() {
		return tablePrinter{w: a.out}
	}
	return jsonPrinter{w: a.out}
}
