package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/signalhub/internal/analysis"
	"github.com/newthinker/signalhub/internal/archive"
	"github.com/newthinker/signalhub/internal/logger"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyse a chart screenshot with the configured LLM",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// newAnalyzer builds the chart analyzer with the configured archive.
func newAnalyzer(rt *appEnv) (*analysis.Analyzer, error) {
	a := analysis.New(rt.cfg.LLM, logger.Component(rt.log, "analysis"))
	a.SetRecorder(rt.metrics)

	charts, err := archive.New(rt.cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("creating chart archive: %w", err)
	}
	if charts != nil {
		a.SetArchive(charts)
	}
	return a, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	img, err := analysis.LoadImageFile(args[0])
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(rt)
	if err != nil {
		return err
	}

	res, err := analyzer.AnalyzeChart(cmd.Context(), img)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Recommendation: %s (%.0f%% confidence)\n", res.Recommendation, res.ConfidenceScore)
	fmt.Printf("Trend:          %s\n", res.Trend)
	fmt.Printf("Patterns:       %s\n", strings.Join(res.Patterns, ", "))
	fmt.Printf("RSI:            %s\n", res.Indicators.RSI)
	fmt.Printf("Volume:         %s\n", res.Indicators.Volume)
	fmt.Println()
	fmt.Println(res.Summary)
	return nil
}
