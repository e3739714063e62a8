package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"coursekit/internal/config"
	"coursekit/internal/roster"

	"github.com/spf13/cobra"
)

func newRowWriter(w io.Writer, cfg config.Config) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = cfg.DelimiterRune()
	return cw
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func newCoursesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List courses visible to the API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := opts.initCanvas()
			if err != nil {
				return err
			}
			courses, err := client.ListCourses(cmd.Context())
			if err != nil {
				return err
			}

			w := newRowWriter(cmd.OutOrStdout(), cfg)
			for _, c := range courses {
				// Courses without access come back without a name.
				if c.Name == "" {
					continue
				}
				w.Write([]string{id(c.ID), c.Name})
			}
			w.Flush()
			return w.Error()
		},
	}
}

func newGroupsCmd(opts *options) *cobra.Command {
	var courseID int64
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the groups of a course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := opts.initCanvas()
			if err != nil {
				return err
			}
			groups, err := client.ListGroups(cmd.Context(), courseID)
			if err != nil {
				return err
			}

			w := newRowWriter(cmd.OutOrStdout(), cfg)
			for _, g := range groups {
				w.Write([]string{id(g.ID), g.Name})
			}
			w.Flush()
			return w.Error()
		},
	}
	courseFlag(cmd, &courseID)
	return cmd
}

func newStudentsCmd(opts *options) *cobra.Command {
	var courseID int64
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List the students of a course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := opts.initCanvas()
			if err != nil {
				return err
			}
			students, err := client.ListStudents(cmd.Context(), courseID)
			if err != nil {
				return err
			}

			w := newRowWriter(cmd.OutOrStdout(), cfg)
			for _, s := range students {
				w.Write([]string{id(s.ID), s.SortableName})
			}
			w.Flush()
			return w.Error()
		},
	}
	courseFlag(cmd, &courseID)
	return cmd
}

func newAssignmentCmd(opts *options) *cobra.Command {
	var courseID, assignmentID int64
	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "Print the submissions download URL of an assignment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.initCanvas()
			if err != nil {
				return err
			}
			a, err := client.GetAssignment(cmd.Context(), courseID, assignmentID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.SubmissionsDownloadURL)
			return nil
		},
	}
	courseFlag(cmd, &courseID)
	cmd.Flags().Int64VarP(&assignmentID, "assignment-id", "a", 0, "Assignment ID")
	cmd.MarkFlagRequired("assignment-id")
	return cmd
}

func newAssignmentsCmd(opts *options) *cobra.Command {
	var courseID int64
	cmd := &cobra.Command{
		Use:   "assignments",
		Short: "List the assignments of a course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := opts.initCanvas()
			if err != nil {
				return err
			}
			assignments, err := client.ListAssignments(cmd.Context(), courseID)
			if err != nil {
				return err
			}

			w := newRowWriter(cmd.OutOrStdout(), cfg)
			for _, a := range assignments {
				w.Write([]string{id(a.ID), a.Name, a.DueAt})
			}
			w.Flush()
			return w.Error()
		},
	}
	courseFlag(cmd, &courseID)
	return cmd
}

func newUsersGroupsCmd(opts *options) *cobra.Command {
	var courseID int64
	cmd := &cobra.Command{
		Use:   "users-groups",
		Short: "List group members sorted by name, with their group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := opts.initCanvas()
			if err != nil {
				return err
			}
			m, err := roster.UsersByGroup(cmd.Context(), client, courseID)
			if err != nil {
				return err
			}

			w := newRowWriter(cmd.OutOrStdout(), cfg)
			for _, member := range m.Members() {
				w.Write([]string{id(member.UserID), member.UserName, id(member.GroupID), member.GroupName})
			}
			w.Flush()
			return w.Error()
		},
	}
	courseFlag(cmd, &courseID)
	return cmd
}

func courseFlag(cmd *cobra.Command, courseID *int64) {
	cmd.Flags().Int64VarP(courseID, "course-id", "c", 0, "Course ID")
	cmd.MarkFlagRequired("course-id")
}
