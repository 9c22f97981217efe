package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
	dbussvc "github.com/cptspacemanspiff/battery-alert/internal/dbus"
	"github.com/cptspacemanspiff/battery-alert/internal/monitor"
	"github.com/cptspacemanspiff/battery-alert/internal/notify"
)

// NewStatusCommand queries the running daemon's status service and prints it.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the battery level reported by the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := dbussvc.NewClient()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			st, err := client.Status(ctx)
			if err != nil {
				return fmt.Errorf("query daemon (is battery-alert running?): %w", err)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func printStatus(w io.Writer, st *monitor.Status) {
	power := "on mains"
	if st.OnBattery {
		power = "on battery"
	}
	fmt.Fprintf(w, "Level:      %s\n", st.Level)
	if st.Batteries == 0 {
		fmt.Fprintln(w, "Batteries:  none")
	} else {
		fmt.Fprintf(w, "Batteries:  %d (%s)\n", st.Batteries, power)
		fmt.Fprintf(w, "Charge:     %.0f%% (%s)\n", st.Percentage, st.State)
	}
	if st.TimeToEmptySecs > 0 {
		fmt.Fprintf(w, "Remaining:  %s\n", notify.Remaining(time.Duration(st.TimeToEmptySecs)*time.Second))
	}
	if st.Level != alert.Normal {
		fmt.Fprintf(w, "Notified:   %s\n", st.LastNotified.Local().Format(time.Kitchen))
	}
	fmt.Fprintf(w, "Updated:    %s\n", st.Updated.Local().Format(time.Kitchen))
}
