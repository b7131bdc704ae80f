package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/veilcash/relayer/cmd"
	"github.com/veilcash/relayer/common"
	"github.com/veilcash/relayer/config"
	"github.com/veilcash/relayer/version"
)

const appName = "relayer"

var (
	configFileFlag = cli.StringFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration `FILE`",
		Required: false,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     config.FlagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run",
		Required: false,
		Value: cli.NewStringSlice(common.LIGHT_CLIENT, common.PROVER,
			common.P2P, common.API),
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = version.Version

	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  cmd.VersionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the relayer node",
			Action:  cmd.RunCmd,
			Flags:   []cli.Flag{&configFileFlag, &componentsFlag},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}
