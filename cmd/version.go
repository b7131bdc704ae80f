package cmd

import (
	"os"

	"github.com/urfave/cli/v2"
	"github.com/veilcash/relayer/version"
)

func VersionCmd(*cli.Context) error {
	version.PrintVersion(os.Stdout)
	return nil
}
