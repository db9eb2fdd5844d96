package commands

import (
	"github.com/arborworks/canopy/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

// RootCmd is the root command for canopy
var RootCmd = &cobra.Command{
	Use:              "canopy",
	Short:            "off-chain tree mirror",
	TraverseChildren: true,
}
