package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/internal/manager"
)

var attendanceArgs manager.AttendanceRequest

func newAttendanceCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "attendance",
		Short: "Start or stop attendance tracking for a group.",
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start attendance for a group with a code members have to enter.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			attendanceArgs.Start = true
			return attendanceCmdRun(cmd)
		},
	}
	start.Flags().StringVar(&attendanceArgs.Code, "code", "", "the attendance code")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop attendance for a group and send the list to the admin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			attendanceArgs.Start = false
			return attendanceCmdRun(cmd)
		},
	}

	for _, c := range []*cobra.Command{start, stop} {
		c.Flags().StringVar(&attendanceArgs.Group, "group", "", "the name of the group")
		c.Flags().StringVar(&attendanceArgs.TargetUserID, "admin", "", "the id of the member receiving the attendance list")
		_ = c.MarkFlagRequired("group")
	}

	command.AddCommand(start, stop)
	return command
}

func attendanceCmdRun(cmd *cobra.Command) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		return printMessage(m.Attendance(ctx, attendanceArgs))
	})
}
