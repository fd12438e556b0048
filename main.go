package main

import (
	"log"
	"os"

	"github.com/mitchellh/cli"
	"github.com/yusufsyaifudin/ngundang/cmd/catalog"
	"github.com/yusufsyaifudin/ngundang/cmd/server"
)

func main() {
	const appName, appVersion = "ngundang", "1.0.0"

	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	serverCmd := server.NewCmd(appVersion)

	c := cli.NewCLI(appName, appVersion)
	c.Args = os.Args[1:]
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"":        serverCmd, // default command if no subcommand defined
		"server":  serverCmd,
		"catalog": catalog.NewCmd(ui),
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
