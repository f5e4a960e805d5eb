package commands

import (
	"github.com/kektsukuba/stars/stars"
	"github.com/spf13/cobra"
)

var config = stars.NewDefaultConfig()

// RootCmd is the root command for stars.
var RootCmd = &cobra.Command{
	Use:              "stars",
	Short:            "STARS message-routing server",
	TraverseChildren: true,
}

func init() {
	RootCmd.AddCommand(NewRunCmd())
	RootCmd.AddCommand(NewKeygenCmd())
	RootCmd.AddCommand(NewVersionCmd())
}
