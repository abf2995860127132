package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/memoir/internal/app"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start today's check-in in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := newService(ctx, st)
		if err != nil {
			return err
		}
		u, err := resolveParticipant(cmd, svc, st)
		if err != nil {
			return err
		}
		if u.Status != store.UserActive {
			return fmt.Errorf("participant %d is %s", u.ID, u.Status)
		}

		skip, _ := cmd.Flags().GetBool("skip-welcome")
		return app.Run(app.Options{Service: svc, User: *u, SkipWelcome: skip})
	},
}

func addParticipantFlags(c *cobra.Command) {
	c.Flags().Int64("user", 0, "Existing participant ID")
	c.Flags().String("name", "", "Participant name")
	c.Flags().String("birth", "", "Participant birth date (YYYY-MM-DD)")
	c.Flags().String("diagnosis", "", "Diagnosis date (YYYY-MM-DD); stored only when the participant is new")
}

func init() {
	addParticipantFlags(playCmd)
	playCmd.Flags().Bool("skip-welcome", false, "Start on the home screen")
}

// resolveParticipant loads the participant named by --user, or finds or
// creates one by --name, --birth and --diagnosis.
func resolveParticipant(cmd *cobra.Command, svc *session.Service, st *store.Store) (*store.User, error) {
	ctx := cmd.Context()
	if id, _ := cmd.Flags().GetInt64("user"); id != 0 {
		u, err := st.Repo().GetUser(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("participant %d not found", id)
		}
		return u, err
	}

	name, _ := cmd.Flags().GetString("name")
	birth, _ := cmd.Flags().GetString("birth")
	diag, _ := cmd.Flags().GetString("diagnosis")
	if name == "" || birth == "" {
		return nil, errors.New("pass --user, or --name and --birth (plus --diagnosis for a new participant)")
	}
	if _, err := time.Parse(store.DayLayout, birth); err != nil {
		return nil, fmt.Errorf("invalid --birth %q: want YYYY-MM-DD", birth)
	}

	var diagnosis time.Time
	if diag != "" {
		d, err := time.Parse(store.DayLayout, diag)
		if err != nil {
			return nil, fmt.Errorf("invalid --diagnosis %q: want YYYY-MM-DD", diag)
		}
		diagnosis = d
	} else {
		// Existing participants keep their stored diagnosis date.
		u, err := st.Repo().FindUser(ctx, name, birth)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, errors.New("new participant needs --diagnosis")
	}
	return svc.GetOrCreateUser(ctx, name, birth, diagnosis)
}
