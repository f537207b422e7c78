package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/netmap/internal/geometry"
)

func newRenderCmd() *cobra.Command {
	var (
		output string
		opts   geometry.RenderOptions
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw a saved map as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return geometry.RenderSVG(cmd.OutOrStdout(), doc, opts)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := geometry.RenderSVG(f, doc, opts); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().Float64Var(&opts.IconSize, "icon-size", geometry.DefaultIconSize, "rendered icon size in pixels")
	cmd.Flags().BoolVar(&opts.HideLabels, "hide-labels", false, "omit interface labels")
	cmd.Flags().StringVar(&opts.Background, "background", "", "background fill color")
	return cmd
}
