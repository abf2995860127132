package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/memoir/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage participants",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a participant, or print the existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := newService(cmd.Context(), st)
		if err != nil {
			return err
		}
		u, err := resolveParticipant(cmd, svc, st)
		if err != nil {
			return err
		}
		fmt.Printf("Participant %d: %s (born %s, diagnosed %s)\n",
			u.ID, u.Name, u.BirthDate, u.DiagnosisDate.Format(store.DayLayout))
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List participants",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.Repo().ListUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No participants yet.")
			return nil
		}

		w := newTable("ID", "Name", "Born", "Diagnosed", "Status")
		for _, u := range users {
			w.row(u.ID, u.Name, u.BirthDate, u.DiagnosisDate.Format(store.DayLayout), u.Status)
		}
		return w.flush()
	},
}

var userStatusCmd = &cobra.Command{
	Use:   "status <id> <active|completed|terminated>",
	Short: "Change a participant's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		status := store.UserStatus(args[1])
		switch status {
		case store.UserActive, store.UserCompleted, store.UserTerminated:
		default:
			return fmt.Errorf("unknown status %q", args[1])
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Repo().UpdateUserStatus(cmd.Context(), id, status); err != nil {
			return fmt.Errorf("update participant %d: %w", id, err)
		}
		fmt.Printf("Participant %d is now %s.\n", id, status)
		return nil
	},
}

func init() {
	addParticipantFlags(userAddCmd)

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userStatusCmd)
}
