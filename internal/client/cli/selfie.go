package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

var errSelfieCancelled = errors.New("selfie cancelled")

func selfieRowCreatedAt(r session.SelfieRow) time.Time { return r.CreatedAt }

// Selfie dispatches the selfie subcommands.
func (a *App) Selfie(ctx context.Context, args []string) error {
	sub, rest := subcommand(args)
	s := a.selfies

	switch sub {
	case "list", "ls":
		groups := session.GroupByDate(s.Rows(), selfieRowCreatedAt, a.loc)
		if len(groups) == 0 {
			a.printf("No selfies yet\n")
			return nil
		}
		for _, g := range groups {
			a.printf("%s\n", g.Label())
			a.printSelfieRows(g.Rows)
		}
		return nil

	case "today":
		today := session.OnDate(s.Rows(), selfieRowCreatedAt, a.now(), a.loc)
		if len(today) == 0 {
			a.printf("No selfies today\n")
			return nil
		}
		a.printSelfieRows(today)
		return nil

	case "new", "take":
		return a.newSelfie(ctx)

	case "show":
		if len(rest) == 0 {
			a.showCurrentSelfie()
			return nil
		}
		n, err := strconv.Atoi(strings.TrimPrefix(rest[0], "#"))
		if err != nil {
			err = s.Select(rest[0])
		} else {
			err = s.SelectNumber(n)
		}
		if err != nil {
			return a.fail(err)
		}
		a.showCurrentSelfie()
		return nil

	case "prev":
		return a.navigate(s.Prev, s.Nav, a.showCurrentSelfie)

	case "next":
		return a.navigate(s.Next, s.Nav, a.showCurrentSelfie)

	case "edit":
		return a.editSelfie(ctx)

	case "predict":
		return a.repredictSelfie(ctx)

	case "correct":
		if err := s.Correct(ctx); err != nil {
			return a.fail(err)
		}
		a.showCurrentSelfie()
		return nil

	case "delete", "rm":
		if err := s.RequestDelete(); err != nil {
			return a.fail(err)
		}
		if !Confirm(a.reader, "Delete this selfie?", a.out) {
			return s.CancelDelete()
		}
		if err := s.ConfirmDelete(ctx); err != nil {
			_ = s.CancelDelete()
			return a.fail(err)
		}
		a.printf("Selfie deleted\n")
		return nil

	case "help":
		a.printf("selfie list | today | new | show <n> | prev | next | edit | predict | correct | delete\n")
		return nil
	}

	a.printf("Unknown selfie command: %s\n", sub)
	return nil
}

// newSelfie turns the camera on, captures on Enter and saves the face.
func (a *App) newSelfie(ctx context.Context) error {
	s := a.selfies
	if err := s.BeginCreate(ctx); err != nil {
		return a.fail(err)
	}
	a.printf("%s\nSelfie #%d\n", s.Clock(), s.NextDisplayNumber())

	err := func() error {
		for {
			answer, err := getSimpleText(a.reader, "Camera is on. Press Enter to capture, or type 'q' to cancel", a.out)
			if err != nil {
				return err
			}
			if strings.EqualFold(answer, "q") {
				return errSelfieCancelled
			}
			err = s.Capture(ctx)
			if errors.Is(err, session.ErrNoFace) {
				a.printf("No face detected, try again\n")
				continue
			}
			if err != nil {
				return err
			}
			break
		}
		d := s.Draft()
		a.printf("Captured a %dx%d face\n", d.Box.Width, d.Box.Height)

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
		a.printf("Selfie saved: %s\n", predictionText(mood.Prediction{Label: created.Label, Probability: created.Probability}, created.ManualCorrection))
		return nil
	}()
	if err != nil {
		s.Close()
		if errors.Is(err, errSelfieCancelled) {
			a.printf("Cancelled\n")
			return nil
		}
		return a.fail(err)
	}
	return nil
}

// editSelfie lets the user set the label by hand or re-run the model.
func (a *App) editSelfie(ctx context.Context) error {
	s := a.selfies
	if err := s.BeginEdit(); err != nil {
		return a.fail(err)
	}

	err := func() error {
		answer, err := getSimpleText(a.reader, "Type 'stressed' / 'not stressed', 'predict' to re-run the model, or Enter to keep", a.out)
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "":
			return session.ErrNoChanges
		case "predict":
			_, ok, err := s.Repredict(ctx)
			if err != nil {
				return err
			}
			if !ok {
				a.printf("Prediction unavailable\n")
				return session.ErrNoChanges
			}
		default:
			label, err := mood.ParseLabel(answer)
			if err != nil {
				return err
			}
			if err := s.ChooseLabel(label); err != nil {
				return err
			}
		}

		if _, err := s.SubmitEdit(ctx); err != nil {
			return err
		}
		a.printf("Selfie updated\n")
		a.showCurrentSelfie()
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

func (a *App) repredictSelfie(ctx context.Context) error {
	s := a.selfies
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
	a.showCurrentSelfie()
	return nil
}

func (a *App) showCurrentSelfie() {
	cur, ok := a.selfies.Current()
	if !ok {
		a.printf("Usage: selfie show <number>\n")
		return
	}
	a.printf("Selfie #%d\n", cur.DisplayNumber)
	a.printf("  taken: %s\n", cur.CreatedAt.In(a.loc).Format(dateTimeLayout))
	a.printf("  image: %s\n", cur.ImageName)
	a.printf("  mood:  %s\n", predictionText(mood.Prediction{Label: cur.Label, Probability: cur.Probability}, cur.ManualCorrection))
}

func (a *App) printSelfieRows(rows []session.SelfieRow) {
	for _, r := range rows {
		a.printf("  #%-3d  %s  %s\n",
			r.DisplayNumber,
			r.CreatedAt.In(a.loc).Format(dateTimeLayout),
			predictionText(mood.Prediction{Label: r.Label, Probability: r.Probability}, r.ManualCorrection))
	}
}
