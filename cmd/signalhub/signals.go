package main

import (
	"fmt"
	"io"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/spf13/cobra"
)

var (
	signalsPage  int
	signalsLimit int
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List trading signals, newest first",
	RunE:  runSignals,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List signal providers",
	RunE:  runProviders,
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id> <provider-id>",
	Short: "Toggle whether a user follows a provider",
	Args:  cobra.ExactArgs(2),
	RunE:  runFollow,
}

func init() {
	signalsCmd.Flags().IntVar(&signalsPage, "page", 1, "page number (1-based)")
	signalsCmd.Flags().IntVar(&signalsLimit, "limit", 10, "signals per page")

	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(followCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.Signals(cmd.Context(), signalsPage, signalsLimit)
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, p core.Page[core.Signal]) {
		fmt.Fprintln(w, "ID\tDATE\tPAIR\tTYPE\tTF\tENTRY\tTARGET\tSTOP\tPROVIDER")
		for _, s := range p.Data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%s\n",
				s.ID, s.Timestamp, s.Pair, s.Type, s.Timeframe, s.Entry, s.Target, s.Stop, s.Provider.Name)
		}
		fmt.Fprintf(w, "\npage %d, %d of %d signals, more: %t\n", p.Page, len(p.Data), p.Total, p.HasMore)
	})
}

func runProviders(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.Providers(cmd.Context())
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, providers []core.SignalProvider) {
		fmt.Fprintln(w, "ID\tNAME\tWIN RATE\tFOLLOWERS\tSIGNALS")
		for _, p := range providers {
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%d\t%d\n", p.ID, p.Name, p.WinRate, p.Followers, p.TotalSignals)
		}
	})
}

func runFollow(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.ToggleFollow(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, following bool) {
		if following {
			fmt.Fprintf(w, "%s now follows %s\n", args[0], args[1])
		} else {
			fmt.Fprintf(w, "%s no longer follows %s\n", args[0], args[1])
		}
	})
}
