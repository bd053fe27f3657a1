package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/qafizz"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number of qafizz",
	Annotations: map[string]string{noStorage: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qafizz version %s\n", strings.TrimSpace(qafizz.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
