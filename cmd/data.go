package cmd

import (
	"context"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/remote"
)

var dataArgs struct {
	File string
}

func newDataCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "data",
		Short: "Browse the attendance, feedback and survey files kept by the server.",
		Long: `Without --file the available files are listed. With --file the content of
that file is shown.`,
	}
	command.PersistentFlags().StringVar(&dataArgs.File, "file", "", "the file to show")
	command.PersistentFlags().Bool("json", false, "print the raw result as JSON")

	command.AddCommand(
		&cobra.Command{
			Use:   "attendance",
			Short: "Show attendance files.",
			RunE:  dataAttendanceCmdRun,
		},
		&cobra.Command{
			Use:   "feedback",
			Short: "Show feedback files.",
			RunE:  dataFeedbackCmdRun,
		},
		&cobra.Command{
			Use:   "surveys",
			Short: "Show survey files.",
			RunE:  dataSurveysCmdRun,
		},
	)
	return command
}

func printFiles(cmd *cobra.Command, files []remote.FileInfo, err error) error {
	if err != nil {
		return err
	}
	rows := make([][]string, len(files))
	for i, f := range files {
		rows[i] = []string{f.Name, strconv.Itoa(f.Size), f.Created, f.Modified}
	}
	return printTable(cmd, files, []string{"File", "Size", "Created", "Modified"}, rows)
}

func dataAttendanceCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		if dataArgs.File == "" {
			files, err := c.FetchAttendanceFiles(ctx)
			return printFiles(cmd, files, err)
		}
		entries, err := c.FetchAttendanceContent(ctx, dataArgs.File)
		if err != nil {
			return err
		}
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{e.Attendance}
		}
		return printTable(cmd, entries, []string{"Attendance"}, rows)
	})
}

func dataFeedbackCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		if dataArgs.File == "" {
			files, err := c.FetchFeedbackFiles(ctx)
			return printFiles(cmd, files, err)
		}
		entries, err := c.FetchFeedbackContent(ctx, dataArgs.File)
		if err != nil {
			return err
		}
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{e.Name, e.Feedback}
		}
		return printTable(cmd, entries, []string{"Name", "Feedback"}, rows)
	})
}

func dataSurveysCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		if dataArgs.File == "" {
			files, err := c.FetchSurveyFiles(ctx)
			return printFiles(cmd, files, err)
		}
		entries, err := c.FetchSurveyContent(ctx, dataArgs.File)
		if err != nil {
			return err
		}
		headers, rows := surveyTable(entries)
		return printTable(cmd, entries, headers, rows)
	})
}

// surveyTable lays out survey rows with one column per question. Rows that
// lack a question leave the cell empty.
func surveyTable(entries []remote.SurveyEntry) ([]string, [][]string) {
	seen := make(map[string]struct{})
	var keys []string
	for _, e := range entries {
		for _, p := range e.Pairs() {
			if _, ok := seen[p.Key]; !ok {
				seen[p.Key] = struct{}{}
				keys = append(keys, p.Key)
			}
		}
	}
	sort.Strings(keys)

	rows := make([][]string, len(entries))
	for i, e := range entries {
		row := make([]string, 0, len(keys)+1)
		row = append(row, e.Name)
		for _, k := range keys {
			v, _ := e.Answer(k)
			row = append(row, v)
		}
		rows[i] = row
	}
	return append([]string{"Name"}, keys...), rows
}
