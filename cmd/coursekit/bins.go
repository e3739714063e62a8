package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"coursekit/internal/canvas"
	"coursekit/internal/partition"
	"coursekit/internal/roster"
	"coursekit/internal/storage"

	"github.com/spf13/cobra"
)

func newBinsCmd(opts *options) *cobra.Command {
	var (
		courseID    int64
		weightSpec  string
		outDir      string
		allStudents bool
		save        bool
	)
	cmd := &cobra.Command{
		Use:   "bins",
		Short: "Split the roster into weighted grading bins",
		Long: `Split group members, ordered by sortable name, into contiguous bins.

--weights takes either a bin count ("3") or a comma list of weights
("30,70", "0.3,0.7" or "30%,70%") that must add up to the whole.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := partition.ParseWeightSpec(weightSpec)
			if err != nil {
				return err
			}
			weights, err := partition.NormalizeWeights(spec)
			if err != nil {
				return err
			}

			client, cfg, err := opts.initCanvas()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stderr := cmd.ErrOrStderr()

			course, err := client.GetCourse(ctx, courseID)
			if err != nil {
				return err
			}
			fmt.Fprintf(stderr, "📚 %s (%d)\n", course.Name, course.ID)

			m, err := roster.UsersByGroup(ctx, client, courseID)
			if err != nil {
				return err
			}
			if allStudents {
				students, err := client.ListStudents(ctx, courseID)
				if err != nil {
					return err
				}
				added := m.AddUngrouped(students)
				log.Printf("Added %d students without a group", added)
			}

			bins := partition.Partition(m.Members(), weights)
			records := roster.Flatten(bins)

			for _, line := range partition.Report(bins, func(mem roster.Member) string { return mem.GroupName }) {
				fmt.Fprintln(stderr, line)
			}

			if outDir != "" {
				paths, err := roster.WriteBinFiles(outDir, cfg.DelimiterRune(), bins)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintf(stderr, "📝 Wrote %s\n", p)
				}
			} else if err := roster.WriteRecords(cmd.OutOrStdout(), cfg.DelimiterRune(), records); err != nil {
				return err
			}

			if save {
				store, err := opts.initStore()
				if err != nil {
					return err
				}
				defer store.Close()

				run := storage.NewPartitionRun(courseID, weights, records)
				if err := store.SavePartition(ctx, run); err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
				fmt.Fprintf(stderr, "💾 Saved run %s to %s\n", run.ID, opts.dbPath)
			}
			return nil
		},
	}

	courseFlag(cmd, &courseID)
	cmd.Flags().StringVarP(&weightSpec, "weights", "w", "", "Bin count or comma-separated weights")
	cmd.MarkFlagRequired("weights")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Write one file per bin into this directory")
	cmd.Flags().BoolVar(&allStudents, "all-students", false, "Include enrolled students who are in no group")
	cmd.Flags().BoolVar(&save, "save", false, "Record the run in the local database")
	return cmd
}

func newQuickURLsCmd(opts *options) *cobra.Command {
	var (
		courseID      int64
		assignmentIDs []int64
		input         string
	)
	cmd := &cobra.Command{
		Use:   "quick-urls",
		Short: "Append SpeedGrader URLs to a bin listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// URL building needs no token; nothing is requested from Canvas.
			client := canvas.NewClient(cfg.CanvasURL, cfg.CanvasToken)

			var in io.Reader = cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(filepath.Clean(input))
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			urlFor := func(assignmentID, userID int64) string {
				return client.SpeedGraderURL(courseID, assignmentID, userID)
			}
			return roster.AugmentWithURLs(in, cmd.OutOrStdout(), cfg.DelimiterRune(), assignmentIDs, urlFor)
		},
	}

	courseFlag(cmd, &courseID)
	cmd.Flags().Int64SliceVarP(&assignmentIDs, "assignment-id", "a", nil, "Assignment ID (repeatable)")
	cmd.MarkFlagRequired("assignment-id")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "Bin listing to read, - for stdin")
	return cmd
}

func newRunsCmd(opts *options) *cobra.Command {
	var show string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved bin runs, or print one with --show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := opts.initStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if show != "" {
				run, err := store.LoadRun(ctx, show)
				if err != nil {
					return err
				}
				for _, line := range partition.Report(run.Bins(), nil) {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
				return roster.WriteRecords(out, cfg.DelimiterRune(), run.Records)
			}

			runs, err := store.ListRuns(ctx)
			if err != nil {
				return err
			}
			w := newRowWriter(out, cfg)
			w.Write([]string{"run_id", "course_id", "bins", "members", "created_at"})
			for _, r := range runs {
				w.Write([]string{
					r.ID,
					id(r.CourseID),
					fmt.Sprint(r.Bins),
					fmt.Sprint(r.Members),
					r.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			w.Flush()
			return w.Error()
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "Print the records of one run")
	return cmd
}
