package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// dateTimeLayout renders entry timestamps in listings.
const dateTimeLayout = "2006-01-02 15:04"

// subcommand splits args into the subcommand and its arguments. No
// subcommand means list.
func subcommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "list", nil
	}
	return strings.ToLower(args[0]), args[1:]
}

// pickID resolves a listing number (1-based) or a literal id.
func pickID[T any](items []T, arg string, idOf func(T) string) string {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(items) {
		return idOf(items[n-1])
	}
	return arg
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i + 1
		}
	}
	return 0
}

func predictionText(p mood.Prediction, manual bool) string {
	if p.IsZero() {
		return "no label"
	}
	s := string(p.Label)
	if p.Probability != "" {
		s += " (" + p.Probability + ")"
	}
	if manual {
		s += " corrected"
	}
	return s
}

// askLabel reads an optional manual label. Empty input means predict.
func (a *App) askLabel() (mood.Label, error) {
	answer, err := getSimpleText(a.reader, "Label: Enter to predict, or type 'stressed' / 'not stressed'", a.out)
	if err != nil {
		return mood.LabelUnknown, err
	}
	return mood.ParseLabel(answer)
}

// navigate steps a session cursor and prints the boundary message when the
// step is refused.
func (a *App) navigate(step func() (bool, error), nav func() session.Nav, show func()) error {
	moved, err := step()
	if err != nil {
		if errors.Is(err, common.ErrInvalidTransition) || errors.Is(err, common.ErrNotFound) {
			a.printf("Select an entry first with 'show'\n")
			return err
		}
		return a.fail(err)
	}
	if !moved {
		a.printf("%s\n", nav().Message)
		return nil
	}
	show()
	return nil
}
