package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/newthinker/signalhub/internal/service"
)

// printResult writes v as JSON when --json is set, otherwise through table.
func printResult[T any](res service.Result[T], table func(w io.Writer, v T)) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"data": res.Value, "source": res.Source})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	table(w, res.Value)
	if err := w.Flush(); err != nil {
		return err
	}
	if res.Source != service.SourceBackend {
		fmt.Fprintf(os.Stderr, "(served from %s data)\n", res.Source)
	}
	return nil
}
