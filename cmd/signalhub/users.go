package main

import (
	"fmt"
	"io"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Admin user management",
	Long:  `Commands for listing, suspending and deleting accounts in the admin panel.`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts, newest first",
	RunE:  runUsersList,
}

var usersStatusCmd = &cobra.Command{
	Use:   "status <user-id> <Ativo|Suspenso>",
	Short: "Set an account's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersStatus,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Remove an account from the admin panel",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersStatusCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.AdminUsers(cmd.Context())
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, users []core.AdminUser) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPLAN\tSTATUS\tJOINED")
		for _, u := range users {
			joined := "-"
			if u.JoinedAt != nil {
				joined = u.JoinedAt.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Plan, u.Status, joined)
		}
	})
}

func runUsersStatus(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	status := core.UserStatus(args[1])
	res, err := rt.svc.UpdateUserStatus(cmd.Context(), args[0], status)
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, _ struct{}) {
		fmt.Fprintf(w, "%s is now %s\n", args[0], status)
	})
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.DeleteUser(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printResult(res, func(w io.Writer, _ struct{}) {
		fmt.Fprintf(w, "%s deleted\n", args[0])
	})
}
