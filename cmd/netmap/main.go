// Netmap serves the network map editor: a browser UI for placing devices on
// a canvas, wiring their interfaces together and saving the result as JSON.
//
// Usage:
//
//	netmap serve [--config netmap.yaml]   Run the HTTP server
//	netmap validate <file>                Check a saved map for defects
//	netmap render <file> [-o map.svg]     Draw a saved map as SVG
//	netmap version                        Print version information
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "netmap",
		Short:             "Network map editor",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")

	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newRenderCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "netmap %s\n", version)
		},
	}
}
