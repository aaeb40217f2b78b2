/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loqalabs/loqa-interviewer/internal/interview"
	"github.com/loqalabs/loqa-interviewer/internal/security"
	"github.com/loqalabs/loqa-interviewer/internal/storage"
)

func newHistoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived interviews",
	}

	var opts storage.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived interviews, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.InterviewsStore) error {
				interviews, err := store.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTARTED\tPOSITION\tQUESTIONS\tSCORE\tRECOMMENDATION")
				for _, iv := range interviews {
					score := "-"
					if iv.Score != nil {
						score = fmt.Sprintf("%d/10", *iv.Score)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
						iv.ID, iv.StartedAt.Format("2006-01-02 15:04"), iv.Position,
						iv.QuestionsAsked, iv.MaxQuestions, score, iv.Recommendation)
				}
				return w.Flush()
			})
		},
	}
	list.Flags().StringVar(&opts.Position, "position", "", "Only interviews for this position")
	list.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of interviews")
	list.Flags().IntVar(&opts.Offset, "offset", 0, "Skip this many interviews")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived interview as JSON",
		Args:  interviewIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.InterviewsStore) error {
				iv, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(a.out, "-", archivedResult(iv))
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived interview",
		Args:  interviewIDArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store *storage.InterviewsStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func (a *app) withStore(ctx context.Context, fn func(*storage.InterviewsStore) error) error {
	store, db, err := a.archive(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("interview archive is disabled; set INTERVIEWER_DB_PATH")
	}
	defer db.Close()
	return fn(store)
}

// interviewIDArg rejects anything that cannot be an interview ID before the
// archive is opened.
func interviewIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if err := security.ValidateInterviewID(args[0]); err != nil {
		return fmt.Errorf("%w: %q", err, security.SanitizeLogInput(args[0]))
	}
	return nil
}

func archivedResult(iv *storage.Interview) interviewResult {
	rec := interview.Record{
		ID:             iv.ID,
		Profile:        interview.Profile{Position: iv.Position, Company: iv.Company, QuestionCount: iv.MaxQuestions},
		QuestionsAsked: iv.QuestionsAsked,
		Entries:        iv.Entries,
		Summary:        iv.Summary,
		Evaluation:     iv.Evaluation,
		StartedAt:      iv.StartedAt,
	}
	if iv.CompletedAt != nil {
		rec.CompletedAt = *iv.CompletedAt
	}
	return newInterviewResult(rec)
}
