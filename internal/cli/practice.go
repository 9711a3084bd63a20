package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lingua-client/internal/api"
	"lingua-client/internal/config"
	"lingua-client/internal/domain"
	"lingua-client/internal/practice"
)

func newPracticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "practice <course-id>",
		Short: "Work through a course's exercises interactively",
		Long: `Starts a practice session over the course's exercises.

Type an answer to draft it, then use commands:
  /submit   check the drafted answer
  /next     go to the next exercise (discards the draft)
  /prev     go back one exercise (discards the draft)
  /score    show session score so far
  /quit     end the session`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := buildEnv(cmd)
			if err != nil {
				return err
			}

			catalog := api.NewCatalog(env.client, config.Duration(env.cfg.Catalog.TTL, 10*time.Minute))
			exercises, err := catalog.Exercises(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			session, err := practice.New(env.client, exercises)
			if err != nil {
				return err
			}
			return runPracticeLoop(cmd, session)
		},
	}
}

func runPracticeLoop(cmd *cobra.Command, session *practice.Session) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	renderExercise(out, session)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && err != io.EOF {
				return err
			}
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			fmt.Fprintf(out, "Session over: %d/%d answered, %d points.\n",
				session.Answered(), session.Len(), session.Score())
			return nil
		case "/next":
			session.Next()
			renderExercise(out, session)
		case "/prev":
			session.Previous()
			renderExercise(out, session)
		case "/score":
			fmt.Fprintf(out, "%d points from %d answered exercises\n", session.Score(), session.Answered())
		case "/submit":
			attempt, err := session.Submit(cmd.Context())
			if err != nil {
				// The draft survives a failed submission so the user can retry.
				fmt.Fprintf(out, "Submission failed: %v\n", err)
				continue
			}
			if attempt == nil {
				fmt.Fprintln(out, "Nothing to submit: draft an answer first (or this exercise is already answered).")
				continue
			}
			renderResult(out, attempt)
		default:
			if session.StateOf() == practice.Submitted {
				fmt.Fprintln(out, "Already answered; use /next to continue.")
				continue
			}
			session.SelectDraft(line)
			fmt.Fprintf(out, "Draft: %q (use /submit to check)\n", line)
		}
	}
}

func renderExercise(out io.Writer, session *practice.Session) {
	exercise := session.Current()
	fmt.Fprintf(out, "\n[%d/%d] %s (%d pts)\n", session.Index()+1, session.Len(), exercise.Title, exercise.Points)
	fmt.Fprintln(out, exercise.QuestionText)
	if exercise.ExerciseType == domain.ExerciseMultipleChoice && len(exercise.Options) > 0 {
		labels := make([]string, 0, len(exercise.Options))
		for label := range exercise.Options {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(out, "  %s) %s\n", label, exercise.Options[label])
		}
	}
	if attempt, ok := session.Result(exercise.ExerciseID); ok {
		renderResult(out, &attempt)
	}
}

func renderResult(out io.Writer, attempt *domain.Attempt) {
	if attempt.IsCorrect {
		fmt.Fprintf(out, "Correct! +%d points\n", attempt.ScoreEarned)
	} else {
		fmt.Fprintln(out, "Incorrect.")
	}
	if attempt.FeedbackGiven != "" {
		fmt.Fprintln(out, attempt.FeedbackGiven)
	}
}
