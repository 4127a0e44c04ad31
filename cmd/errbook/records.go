package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/spf13/cobra"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var draft domain.QuestionDraft

	cmd := &cobra.Command{
		Use:     "add",
		GroupID: "records",
		Short:   "Capture a wrongly answered question",
		Example: `  errbook add --subject math --question "d/dx x^2" --answer "2x" --user-answer "x" --error-type concept`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, _, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.close()

			q, err := app.questions.Add(ctx, draft)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s), first review %s\n",
				q.ID, q.Subject, formatTime(q.NextReviewAt))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&draft.Subject, "subject", "", "subject the question belongs to")
	f.StringVar(&draft.Question, "question", "", "question text")
	f.StringVar(&draft.CorrectAnswer, "answer", "", "correct answer")
	f.StringVar(&draft.UserAnswer, "user-answer", "", "the answer you gave")
	f.StringVar(&draft.Analysis, "analysis", "", "why the answer was wrong")
	f.StringVar(&draft.Source, "source", "", "where the question came from")
	f.StringVar(&draft.ErrorType, "error-type", "", "kind of mistake, e.g. careless or concept")
	f.StringSliceVar(&draft.Tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:     "due",
		GroupID: "records",
		Short:   "List questions due for review",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, _, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.close()

			var due []*domain.Question
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: expected RFC 3339", at)
				}
				due = app.questions.Due(t)
			} else {
				due = app.questions.DueNow()
			}

			return writeQuestions(cmd.OutOrStdout(), due)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time in RFC 3339 (default now)")
	return cmd
}

func newReviewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "review <id> <remember|fuzzy|forgot>",
		GroupID:   "records",
		Short:     "Record how well you recalled a question",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"remember", "fuzzy", "forgot"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, feedback := args[0], domain.Feedback(args[1])

			if !feedback.Valid() {
				return fmt.Errorf("invalid feedback %q: use remember, fuzzy or forgot", args[1])
			}

			app, _, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.close()

			q, err := app.questions.ApplyFeedback(ctx, id, feedback)
			if err != nil {
				return err
			}
			if q == nil {
				return fmt.Errorf("question %s not found", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: stage %d, next review %s\n",
				q.ID, q.Stage, formatTime(q.NextReviewAt))
			return nil
		},
	}
}

func writeQuestions(w io.Writer, qs []*domain.Question) error {
	if len(qs) == 0 {
		_, err := fmt.Fprintln(w, "nothing due")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tSTAGE\tNEXT REVIEW\tTAGS")
	for _, q := range qs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			q.ID, q.Subject, q.Stage, formatTime(q.NextReviewAt), strings.Join(q.Tags, ","))
	}
	return tw.Flush()
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
