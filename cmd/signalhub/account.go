package main

import (
	"fmt"
	"io"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/spf13/cobra"
)

var (
	accountPassword string
	accountName     string
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Authenticate an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create a free account",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

var recoverCmd = &cobra.Command{
	Use:   "recover <email>",
	Short: "Start password recovery for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecover,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <user-id>",
	Short: "Move an account to the premium plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpgrade,
}

func init() {
	loginCmd.Flags().StringVarP(&accountPassword, "password", "p", "", "account password")
	registerCmd.Flags().StringVarP(&accountPassword, "password", "p", "", "account password (required)")
	registerCmd.Flags().StringVar(&accountName, "name", "", "display name")
	registerCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(upgradeCmd)
}

func printUser(w io.Writer, u core.User) {
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	fmt.Fprintf(w, "Name:\t%s\n", u.Name)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Plan:\t%s (%s)\n", u.Plan, u.Role)
}

func runLogin(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.Login(cmd.Context(), args[0], accountPassword)
	if err != nil {
		return err
	}
	return printResult(res, printUser)
}

func runRegister(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.Register(cmd.Context(), args[0], accountPassword, accountName)
	if err != nil {
		return err
	}
	return printResult(res, printUser)
}

func runRecover(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.RecoverPassword(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, _ struct{}) {
		fmt.Fprintf(w, "If %s is registered, a reset link has been issued.\n", args[0])
	})
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.UpgradePlan(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printResult(res, printUser)
}
