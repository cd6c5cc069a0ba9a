package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/richtext"
)

func journalID(j api.Journal) string { return j.ID }

func journalPrediction(j api.Journal) mood.Prediction {
	return mood.Prediction{Label: j.Label, Probability: j.Probability}
}

// Journal dispatches the journal subcommands.
func (a *App) Journal(ctx context.Context, args []string) error {
	sub, rest := subcommand(args)
	s := a.journals

	switch sub {
	case "list", "ls":
		a.printJournalGroups(session.GroupByDate(s.List(), session.JournalCreatedAt, a.loc))
		return nil

	case "today":
		today := session.OnDate(s.List(), session.JournalCreatedAt, a.now(), a.loc)
		if len(today) == 0 {
			a.printf("No journals today\n")
			return nil
		}
		a.printJournalRows(today)
		return nil

	case "search":
		q := strings.Join(rest, " ")
		found := session.SearchTitles(s.List(), q)
		if len(found) == 0 {
			a.printf("No journal title matches %q\n", q)
			return nil
		}
		a.printJournalRows(found)
		return nil

	case "new", "add":
		return a.newJournal(ctx)

	case "show":
		if len(rest) == 0 {
			cur, ok := s.Current()
			if !ok {
				a.printf("Usage: journal show <number|id>\n")
				return nil
			}
			a.printJournal(cur)
			return nil
		}
		if err := s.Select(pickID(s.List(), rest[0], journalID)); err != nil {
			return a.fail(err)
		}
		cur, _ := s.Current()
		a.printJournal(cur)
		return nil

	case "prev":
		return a.navigate(s.Prev, s.Nav, a.showCurrentJournal)

	case "next":
		return a.navigate(s.Next, s.Nav, a.showCurrentJournal)

	case "edit":
		return a.editJournal(ctx)

	case "predict":
		return a.repredictJournal(ctx)

	case "correct":
		if err := s.Correct(ctx); err != nil {
			return a.fail(err)
		}
		a.showCurrentJournal()
		return nil

	case "delete", "rm":
		if err := s.RequestDelete(); err != nil {
			return a.fail(err)
		}
		if !Confirm(a.reader, "Delete this journal?", a.out) {
			return s.CancelDelete()
		}
		if err := s.ConfirmDelete(ctx); err != nil {
			_ = s.CancelDelete()
			return a.fail(err)
		}
		a.printf("Journal deleted\n")
		return nil

	case "help":
		a.printf("journal list | today | search <text> | new | show <n> | prev | next | edit | predict | correct | delete\n")
		return nil
	}

	a.printf("Unknown journal command: %s\n", sub)
	return nil
}

func (a *App) newJournal(ctx context.Context) error {
	s := a.journals
	if err := s.BeginCreate(ctx); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", s.Clock())

	err := func() error {
		title, err := getSimpleText(a.reader, "Title", a.out)
		if err != nil {
			return err
		}
		if err := s.SetTitle(title); err != nil {
			return err
		}
		if !s.TitleUnique() {
			return session.ErrTitleTaken
		}

		body, err := getMultiline(a.reader, "Write your entry", a.out)
		if err != nil {
			return err
		}
		if err := s.SetBody(body); err != nil {
			return err
		}

		label, err := a.askLabel()
		if err != nil {
			return err
		}
		if label != mood.LabelUnknown {
			if err := s.ChooseLabel(label); err != nil {
				return err
			}
		}

		created, err := s.Submit(ctx)
		if err != nil {
			return err
		}
		a.printf("Journal saved\n")
		a.printJournal(created)
		return nil
	}()
	if err != nil {
		s.Close()
		return a.fail(err)
	}
	return nil
}

func (a *App) editJournal(ctx context.Context) error {
	s := a.journals
	if err := s.BeginEdit(); err != nil {
		return a.fail(err)
	}
	cur := s.Draft()

	err := func() error {
		title, err := getSimpleText(a.reader, "Title (Enter keeps \""+cur.Title+"\")", a.out)
		if err != nil {
			return err
		}
		if title != "" {
			if err := s.SetTitle(title); err != nil {
				return err
			}
		}

		body, err := getMultiline(a.reader, "New text (empty keeps the current entry)", a.out)
		if err != nil {
			return err
		}
		if body != "" {
			if err := s.SetBody(body); err != nil {
				return err
			}
			if Confirm(a.reader, "Predict the mood of the new text?", a.out) {
				_, ok, err := s.Repredict(ctx)
				if err != nil {
					return err
				}
				if !ok {
					a.printf("Prediction unavailable, keeping the current label\n")
				}
			}
		}

		updated, err := s.SubmitEdit(ctx)
		if err != nil {
			return err
		}
		a.printf("Journal updated\n")
		a.printJournal(updated)
		return nil
	}()
	if err != nil {
		_ = s.CancelEdit()
		if errors.Is(err, session.ErrNoChanges) {
			a.printf("Nothing changed\n")
			return nil
		}
		return a.fail(err)
	}
	return nil
}

func (a *App) repredictJournal(ctx context.Context) error {
	s := a.journals
	if err := s.BeginEdit(); err != nil {
		return a.fail(err)
	}
	p, ok, err := s.Repredict(ctx)
	if err != nil {
		_ = s.CancelEdit()
		return a.fail(err)
	}
	if !ok {
		_ = s.CancelEdit()
		a.printf("Prediction unavailable\n")
		return nil
	}
	if _, err := s.SubmitEdit(ctx); err != nil {
		_ = s.CancelEdit()
		if errors.Is(err, session.ErrNoChanges) {
			a.printf("Prediction unchanged: %s\n", predictionText(p, false))
			return nil
		}
		return a.fail(err)
	}
	a.showCurrentJournal()
	return nil
}

func (a *App) showCurrentJournal() {
	if cur, ok := a.journals.Current(); ok {
		a.printJournal(cur)
	}
}

func (a *App) printJournal(j api.Journal) {
	n := indexOf(a.journals.List(), j.ID, journalID)
	a.printf("#%d %s\n", n, j.Title)
	a.printf("  created: %s\n", j.CreatedAt.In(a.loc).Format(dateTimeLayout))
	a.printf("  mood:    %s\n", predictionText(journalPrediction(j), j.ManualCorrection))
	a.printf("\n%s\n\n", richtext.PlainText(j.Body))
}

func (a *App) printJournalRows(rows []api.Journal) {
	all := a.journals.List()
	for _, j := range rows {
		a.printf("  %3d  %s  %-30s  %s\n",
			indexOf(all, j.ID, journalID),
			j.CreatedAt.In(a.loc).Format(dateTimeLayout),
			j.Title,
			predictionText(journalPrediction(j), j.ManualCorrection))
	}
}

func (a *App) printJournalGroups(groups []session.DateGroup[api.Journal]) {
	if len(groups) == 0 {
		a.printf("No journals yet\n")
		return
	}
	for _, g := range groups {
		a.printf("%s\n", g.Label())
		a.printJournalRows(g.Rows)
	}
}
