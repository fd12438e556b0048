package catalog

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/cli"
	"github.com/yusufsyaifudin/ngundang/container"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

// Cmd loads the recipient catalog the same way the server does and prints it.
// Exit status is non-zero when the catalog is missing or malformed.
type Cmd struct {
	ui         cli.Ui
	flags      *flag.FlagSet
	configFile string
	file       string
	verbose    bool
}

func NewCmd(ui cli.Ui) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			ui: ui,
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("catalog", flag.ContinueOnError)
	c.flags.SetOutput(os.Stderr)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to read catalog.path from")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file")
	c.flags.StringVar(&c.file, "file", "",
		"Catalog file, overrides catalog.path from config")
	c.flags.BoolVar(&c.verbose, "v", false,
		"Print every recipient")
	return nil
}

func (c *Cmd) Help() string {
	return `Usage: ngundang catalog [-config config.yml] [-file courses.json] [-v]

  Validate the recipient catalog and print its categories.`
}

func (c *Cmd) Synopsis() string {
	return `Validate and print the recipient catalog`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		c.ui.Error(fmt.Sprintf("error parsing argument: %s", err))
		return ExitErr
	}

	path := c.file
	if path == "" {
		cfg, err := container.LoadConfig(c.configFile)
		if err != nil {
			c.ui.Error(fmt.Sprintf("error load config: %s", err))
			return ExitErr
		}

		path = cfg.Catalog.Path
	}

	catalog, err := catalogsvc.Load(path)
	if err != nil {
		c.ui.Error(err.Error())
		return ExitErr
	}

	c.ui.Output(c.render(path, catalog))
	return ExitSuccess
}

func (c *Cmd) render(path string, catalog *catalogsvc.Catalog) string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s: %d categories\n\n", path, catalog.Len())

	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCODE\tRECIPIENTS")
	for _, category := range catalog.Categories() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", category.Name, category.Code, len(category.Recipients))
		if !c.verbose {
			continue
		}

		for _, recipient := range category.Recipients {
			_, _ = fmt.Fprintf(w, "\t%s\t%s\n", recipient.Salutation, recipient.Email)
		}
	}

	_ = w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
