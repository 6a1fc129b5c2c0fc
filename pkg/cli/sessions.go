package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/domain/session"
	axerrors "github.com/dshills/goax/pkg/errors"
)

// NewSessionsCommand creates the sessions command
func NewSessionsCommand() *cobra.Command {
	var (
		limit  int
		offset int
		status string
		roles  bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List collection sessions",
		Long: `List collection sessions from the session index, newest first.

Examples:
  ax sessions
  ax sessions --status failed
  ax sessions --roles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := session.ListOptions{Limit: limit, Offset: offset}
			if status != "" {
				s := session.Status(status)
				if s != session.StatusRunning && !s.IsTerminal() {
					return axerrors.New(axerrors.Invalid, "--status", "invalid status %q (valid: running, completed, failed)", status)
				}
				opts.Status = s
			}

			repo, err := sessionRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			if roles {
				counts, err := repo.RoleCounts()
				if err != nil {
					return err
				}
				if GlobalConfig.JSON {
					return printJSON(out, counts)
				}
				printCounts(out, "Samples by role", counts)
				return nil
			}

			result, err := repo.List(opts)
			if err != nil {
				return err
			}

			if GlobalConfig.JSON {
				views := make([]sessionView, 0, len(result.Sessions))
				for _, s := range result.Sessions {
					views = append(views, newSessionView(s))
				}
				return printJSON(out, map[string]interface{}{
					"sessions": views,
					"total":    result.TotalCount,
				})
			}

			if len(result.Sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tSAMPLES\tDURATION\tSTARTED\tOUTPUT")
			for _, s := range result.Sessions {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					s.ID.String()[:8],
					s.Status,
					s.SampleCount,
					formatDurationValue(sessionDuration(s)),
					s.StartedAt.Local().Format("2006-01-02 15:04"),
					truncateString(outputLabel(s), 40))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if shown := offset + len(result.Sessions); shown < result.TotalCount {
				fmt.Fprintln(out, paint(colorGray, fmt.Sprintf("%d of %d sessions shown", len(result.Sessions), result.TotalCount)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of sessions to skip")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (running, completed, failed)")
	cmd.Flags().BoolVar(&roles, "roles", false, "Show indexed samples by target role instead")

	return cmd
}

// NewSessionCommand creates the session command
func NewSessionCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "session <id>",
		Short: "Show one collection session and its samples",
		Long: `Show one session by id or unique id prefix, with the samples it indexed.

Examples:
  ax session 3f2a91c0
  ax session 3f2a --delete`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := sessionRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			s, err := repo.LoadPrefix(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if remove {
				if err := repo.Delete(s.ID); err != nil {
					return err
				}
				current.logger.Info("session deleted", "session", s.ID.String())
				fmt.Fprintf(out, "%s Deleted session %s\n", paint(colorGreen, "✓"), s.ID)
				return nil
			}

			samples, err := repo.ListSamples(s.ID)
			if err != nil {
				return err
			}

			if GlobalConfig.JSON {
				view := newSessionView(s)
				view.Samples = samples
				return printJSON(out, view)
			}

			fmt.Fprintf(out, "Session:  %s\n", s.ID)
			fmt.Fprintf(out, "Status:   %s\n", colorizeStatus(s.Status))
			fmt.Fprintf(out, "Started:  %s\n", s.StartedAt.Local().Format(time.RFC3339))
			if !s.CompletedAt.IsZero() {
				fmt.Fprintf(out, "Finished: %s\n", s.CompletedAt.Local().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Duration: %s\n", formatDurationValue(sessionDuration(s)))
			fmt.Fprintf(out, "Output:   %s\n", outputLabel(s))
			if s.Config.AppFilter != "" {
				fmt.Fprintf(out, "App:      %s\n", s.Config.AppFilter)
			}
			fmt.Fprintf(out, "Samples:  %d\n", s.SampleCount)
			if s.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", paint(colorRed, s.Error))
			}

			if len(samples) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tLINE\tACTION\tTARGET\tCOMMAND")
			for _, rec := range samples {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s %q\t%s\n",
					rec.Seq, rec.Line, rec.ActionType, rec.TargetRole, rec.TargetLabel, rec.Command)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the session and its sample index (the dataset is not touched)")

	return cmd
}

type sessionView struct {
	ID          string                  `json:"id"`
	Status      session.Status          `json:"status"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	SampleCount int                     `json:"sample_count"`
	Output      string                  `json:"output,omitempty"`
	AppFilter   string                  `json:"app_filter,omitempty"`
	Auto        bool                    `json:"auto"`
	DryRun      bool                    `json:"dry_run"`
	Error       string                  `json:"error,omitempty"`
	Samples     []*session.SampleRecord `json:"samples,omitempty"`
}

func newSessionView(s *session.Session) sessionView {
	v := sessionView{
		ID:          s.ID.String(),
		Status:      s.Status,
		StartedAt:   s.StartedAt,
		SampleCount: s.SampleCount,
		Output:      s.Config.OutputPath,
		AppFilter:   s.Config.AppFilter,
		Auto:        s.Config.Auto,
		DryRun:      s.Config.DryRun,
		Error:       s.Error,
	}
	if !s.CompletedAt.IsZero() {
		t := s.CompletedAt
		v.CompletedAt = &t
	}
	return v
}

// sessionDuration is 0 for sessions still marked running, which may belong to
// a process that exited without closing them.
func sessionDuration(s *session.Session) time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.Duration()
}

func outputLabel(s *session.Session) string {
	if s.Config.DryRun {
		return "(dry run)"
	}
	if _, err := os.Stat(s.Config.OutputPath); err != nil {
		return s.Config.OutputPath + " (missing)"
	}
	return s.Config.OutputPath
}
