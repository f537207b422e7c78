package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/homelab/netmap/internal/domain"
)

// validateReport is the machine readable result of validate
type validateReport struct {
	Path        string           `json:"path" yaml:"path"`
	Devices     int              `json:"devices" yaml:"devices"`
	Connections int              `json:"connections" yaml:"connections"`
	Problems    []domain.Problem `json:"problems" yaml:"problems"`
}

func newValidateCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a saved map for structural defects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			report := validateReport{
				Path:        args[0],
				Devices:     len(doc.Devices),
				Connections: len(doc.Connections),
				Problems:    doc.Problems(),
			}
			if report.Problems == nil {
				report.Problems = []domain.Problem{}
			}
			if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if n := len(report.Problems); n > 0 {
				return fmt.Errorf("%s: %d problem(s) found", args[0], n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func writeReport(w io.Writer, format string, r validateReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(r)
	case "text", "":
		fmt.Fprintf(w, "%s: %d devices, %d connections\n", r.Path, r.Devices, r.Connections)
		for _, p := range r.Problems {
			fmt.Fprintf(w, "  %s: %s\n", p.Kind, p.Message)
		}
		if len(r.Problems) == 0 {
			fmt.Fprintln(w, "  ok")
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// readDocument decodes a saved map. An empty file is an empty map.
func readDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return doc, nil
}
