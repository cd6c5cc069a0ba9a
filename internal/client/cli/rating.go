package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

func ratingID(r api.Rating) string { return r.ID }

// Rating dispatches the rating subcommands.
func (a *App) Rating(ctx context.Context, args []string) error {
	sub, rest := subcommand(args)
	s := a.ratings

	switch sub {
	case "list", "ls":
		rows := s.List()
		if len(rows) == 0 {
			a.printf("No ratings yet\n")
			return nil
		}
		for i, r := range rows {
			a.printRatingRow(i+1, r)
		}
		return nil

	case "today":
		r, ok := s.Today()
		if !ok {
			a.printf("Not rated today. Use 'rating new'\n")
			return nil
		}
		a.printRatingRow(indexOf(s.List(), r.ID, ratingID), r)
		return nil

	case "new", "add":
		return a.newRating(ctx)

	case "show":
		if len(rest) == 0 {
			a.showCurrentRating()
			return nil
		}
		if err := s.Select(pickID(s.List(), rest[0], ratingID)); err != nil {
			return a.fail(err)
		}
		a.showCurrentRating()
		return nil

	case "prev":
		return a.navigate(s.Prev, s.Nav, a.showCurrentRating)

	case "next":
		return a.navigate(s.Next, s.Nav, a.showCurrentRating)

	case "edit":
		return a.editRating(ctx)

	case "delete", "rm":
		if err := s.RequestDelete(); err != nil {
			return a.fail(err)
		}
		if !Confirm(a.reader, "Delete this rating?", a.out) {
			return s.CancelDelete()
		}
		if err := s.ConfirmDelete(ctx); err != nil {
			_ = s.CancelDelete()
			return a.fail(err)
		}
		a.printf("Rating deleted\n")
		return nil

	case "help":
		a.printf("rating list | today | new | show <n> | prev | next | edit | delete\n")
		return nil
	}

	a.printf("Unknown rating command: %s\n", sub)
	return nil
}

func (a *App) askValue(prompt string) (string, error) {
	a.printf("%s\n", prompt)
	for i, v := range mood.Values {
		a.printf("  %d. %s\n", i+1, v)
	}
	return getSimpleText(a.reader, "Your choice", a.out)
}

func (a *App) newRating(ctx context.Context) error {
	s := a.ratings
	if !s.CanRate() {
		return a.fail(session.ErrRatedToday)
	}
	if err := s.BeginCreate(ctx); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", s.Clock())

	err := func() error {
		answer, err := a.askValue("How do you feel today?")
		if err != nil {
			return err
		}
		v, err := mood.ParseValue(answer)
		if err != nil {
			return err
		}
		if err := s.SetValue(v); err != nil {
			return err
		}

		msg, err := getSimpleText(a.reader, "Anything to add? (optional)", a.out)
		if err != nil {
			return err
		}
		if err := s.SetMessage(msg); err != nil {
			return err
		}

		created, err := s.Submit(ctx)
		if err != nil {
			return err
		}
		a.printf("Rated today: %s\n", created.Value)
		return nil
	}()
	if err != nil {
		s.Close()
		return a.fail(err)
	}
	return nil
}

func (a *App) editRating(ctx context.Context) error {
	s := a.ratings
	if err := s.BeginEdit(); err != nil {
		return a.fail(err)
	}
	cur := s.Draft()

	err := func() error {
		answer, err := a.askValue("New mood (Enter keeps " + string(cur.Value) + ")")
		if err != nil {
			return err
		}
		if answer != "" {
			v, err := mood.ParseValue(answer)
			if err != nil {
				return err
			}
			if err := s.SetValue(v); err != nil {
				return err
			}
		}

		msg, err := getSimpleText(a.reader, "New message (Enter keeps the current one)", a.out)
		if err != nil {
			return err
		}
		if msg != "" {
			if err := s.SetMessage(msg); err != nil {
				return err
			}
		}

		if _, err := s.SubmitEdit(ctx); err != nil {
			return err
		}
		a.printf("Rating updated\n")
		a.showCurrentRating()
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

func (a *App) showCurrentRating() {
	cur, ok := a.ratings.Current()
	if !ok {
		a.printf("Usage: rating show <number>\n")
		return
	}
	a.printf("Rating #%d\n", indexOf(a.ratings.List(), cur.ID, ratingID))
	a.printf("  date:    %s\n", cur.CreatedAt.In(a.loc).Format(dateTimeLayout))
	a.printf("  mood:    %s\n", cur.Value)
	if cur.Message != "" {
		a.printf("  message: %s\n", cur.Message)
	}
}

func (a *App) printRatingRow(n int, r api.Rating) {
	a.printf("  %3d  %s  %-16s  %s\n", n, r.CreatedAt.In(a.loc).Format(dateTimeLayout), r.Value, r.Message)
}
