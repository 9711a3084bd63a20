package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lingua-client/internal/api"
	"lingua-client/internal/domain"
)

func newCoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Browse and manage course enrollment",
	}
	cmd.AddCommand(
		newCoursesListCmd(),
		newCoursesMetaCmd(),
		newCoursesShowCmd(),
		newEnrollCmd(),
		newUnenrollCmd(),
		newEnrollmentsCmd(),
	)
	return cmd
}

func newCoursesListCmd() *cobra.Command {
	var search, difficulty, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			courses, err := env.client.Courses(cmd.Context(), api.CourseFilters{
				Search:     search,
				Difficulty: difficulty,
				Category:   category,
			})
			if err != nil {
				return err
			}
			if len(courses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No courses found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tDIFFICULTY\tCATEGORY\tENROLLED")
			for _, c := range courses {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", c.ID, c.Title, c.Difficulty, c.Category, c.EnrollmentCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "search in title/description")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "filter by difficulty")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	return cmd
}

func newCoursesMetaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Show valid categories and difficulties",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			meta, err := env.client.CourseMeta(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Categories: %v\nDifficulties: %v\n", meta.Categories, meta.Difficulties)
			return nil
		},
	}
}

func newCoursesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <course-id>",
		Short: "Show course detail and content outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}

			var (
				course   domain.Course
				contents []domain.CourseContent
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				course, err = env.client.Course(ctx, courseID)
				return err
			})
			g.Go(func() error {
				var err error
				contents, err = env.client.CourseContents(ctx, courseID)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, %s)\n", course.Title, course.Difficulty, course.Category)
			fmt.Fprintf(out, "By %s %s — %d enrolled\n\n", course.Creator.FirstName, course.Creator.LastName, course.EnrollmentCount)
			fmt.Fprintln(out, course.Description)
			if len(contents) > 0 {
				fmt.Fprintln(out, "\nContent:")
				for _, item := range contents {
					fmt.Fprintf(out, "  %d. [%s] %s\n", item.OrderIndex, item.ContentType, item.Title)
				}
			}
			return nil
		},
	}
}

func newEnrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			msg, err := env.client.Enroll(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newUnenrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unenroll <course-id>",
		Short: "Drop a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			msg, err := env.client.Unenroll(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newEnrollmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrollments",
		Short: "List your enrollments",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}
			enrollments, err := env.client.MyEnrollments(cmd.Context())
			if err != nil {
				return err
			}
			if len(enrollments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "You are not enrolled in any courses.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COURSE\tTITLE\tSTATUS\tSINCE")
			for _, e := range enrollments {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.CourseID, e.Course.Title, e.Status, e.EnrollmentDate)
			}
			return w.Flush()
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
