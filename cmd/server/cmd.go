package server

import (
	"context"
	"flag"
	"log"

	"github.com/mitchellh/cli"
	"github.com/yusufsyaifudin/ngundang/container"
	"github.com/yusufsyaifudin/ngundang/extd"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags      *flag.FlagSet
	appVersion string
	configFile string
}

func NewCmd(appVersion string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags:      &flag.FlagSet{},
			appVersion: appVersion,
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("")

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("server", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	return nil
}

func (c *Cmd) Help() string {
	return `Usage: ngundang server [-config config.yml]

  Start the HTTP server serving the mailer page and its API.
  Keys not written in the config file keep their built-in defaults.`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing config argument: %s", err)
		return ExitErr
	}

	cfg, err := container.LoadConfig(c.configFile)
	if err != nil {
		log.Printf("error load config: %s", err)
		return ExitErr
	}

	err = extd.RunServer(context.Background(), c.appVersion, cfg)
	if err != nil {
		log.Printf("server stopped with error: %s", err)
		return ExitErr
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `Start the mailer HTTP server`
}
