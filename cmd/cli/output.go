package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"liquigen/domain/form"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/pretty"
)

type printer func(w io.Writer, result *form.BatchResult) error

func newPrinter(format string) (printer, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return printTable, nil
	case "json":
		return printJSON, nil
	case "yaml", "yml":
		return printYAML, nil
	default:
		return nil, fmt.Errorf("unknown format %q: expected table, json or yaml", format)
	}
}

func printJSON(w io.Writer, result *form.BatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}

func printYAML(w io.Writer, result *form.BatchResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func printTable(w io.Writer, result *form.BatchResult) error {
	fmt.Fprintf(w, "Batch %s: %d passed, %d failed, %d skipped, %d dropped\n",
		result.BatchID, result.Accepted(), result.Failed(), result.SkippedCount(), len(result.Dropped))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(result.Documents) > 0 {
		fmt.Fprintln(tw, "\nFILE\tCHANGESET\tSHAPE\tKEYS")
		for _, d := range result.Documents {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.Path, d.ChangesetID, d.Shape, len(d.Keys))
		}
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(tw, "\nSHEET\tROW\tERROR")
		for _, e := range result.Errors {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Sheet, e.RowNumber, e.Reason)
		}
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintln(tw, "\nSHEET\tROW\tSKIPPED")
		for _, s := range result.Skipped {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Sheet, s.RowNumber, s.Reason)
		}
	}
	if len(result.Dropped) > 0 {
		fmt.Fprintln(tw, "\nSHEET\tROW\tDROPPED")
		for _, d := range result.Dropped {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Sheet, d.RowNumber, d.Reason)
		}
	}
	return tw.Flush()
}
