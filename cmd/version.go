package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/system"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Prints the current executable version and exits.",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("botdeck v%s\n", system.Version)
	},
}
