package commands

import (
	"fmt"

	"github.com/kektsukuba/stars/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd returns the command that prints the server's version.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.Version)
			return nil
		},
	}
}
