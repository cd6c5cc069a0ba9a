package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

func seedJournals(ta *testApp, titles ...string) {
	for i, title := range titles {
		at := testNow.Add(time.Duration(i-len(titles)) * time.Hour)
		ta.store.journals = append(ta.store.journals, api.Journal{
			ID: "seed-" + title, Title: title, Body: "<p>" + title + " body</p>",
			Label: mood.LabelStressed, Probability: "80.00%", CreatedAt: at, UpdatedAt: at,
		})
	}
}

func TestJournalNew_PredictsAndLists(t *testing.T) {
	ta := newTestApp(t, "Monday\nbad day at work\n\n\n")
	ctx := context.Background()

	require.NoError(t, ta.Journal(ctx, []string{"new"}))
	require.Len(t, ta.store.journals, 1)
	j := ta.store.journals[0]
	assert.Equal(t, "Monday", j.Title)
	assert.Equal(t, mood.LabelStressed, j.Label)
	assert.Equal(t, "91.00%", j.Probability)
	assert.False(t, j.ManualCorrection)
	assert.Contains(t, ta.out.String(), "Journal saved")
	assert.Equal(t, session.Submitted, ta.journals.State())

	ta.out.Reset()
	require.NoError(t, ta.Journal(ctx, []string{"list"}))
	assert.Contains(t, ta.out.String(), "2024-03-10")
	assert.Contains(t, ta.out.String(), "Monday")
	assert.Contains(t, ta.out.String(), "Stressed (91.00%)")
}

func TestJournalNew_ManualLabelSkipsModel(t *testing.T) {
	ta := newTestApp(t, "Calm\nquiet walk\n\nnot stressed\n")

	require.NoError(t, ta.Journal(context.Background(), []string{"new"}))
	require.Len(t, ta.store.journals, 1)
	assert.Equal(t, mood.LabelNotStressed, ta.store.journals[0].Label)
	assert.Equal(t, mood.ManualProbability, ta.store.journals[0].Probability)
	assert.True(t, ta.store.journals[0].ManualCorrection)
	assert.Zero(t, ta.predictor.n)
}

func TestJournalNew_DuplicateTitleAborts(t *testing.T) {
	ta := newTestApp(t, "  monday \n")
	seedJournals(ta, "Monday")
	ta.load(t)

	err := ta.Journal(context.Background(), []string{"new"})
	assert.ErrorIs(t, err, session.ErrTitleTaken)
	assert.Len(t, ta.store.journals, 1)
	assert.Equal(t, session.Browsing, ta.journals.State())
	assert.Empty(t, ta.journals.Clock())
}

func TestJournalNavigation(t *testing.T) {
	ta := newTestApp(t, "")
	seedJournals(ta, "First", "Second")
	ta.load(t)
	ctx := context.Background()

	require.NoError(t, ta.Journal(ctx, []string{"show", "1"}))
	assert.Contains(t, ta.out.String(), "First")

	ta.out.Reset()
	require.NoError(t, ta.Journal(ctx, []string{"prev"}))
	assert.Contains(t, ta.out.String(), "No more previous journals exist!")

	ta.out.Reset()
	require.NoError(t, ta.Journal(ctx, []string{"next"}))
	assert.Contains(t, ta.out.String(), "Second")
	assert.Contains(t, ta.out.String(), "Second body")

	ta.out.Reset()
	require.NoError(t, ta.Journal(ctx, []string{"next"}))
	assert.Contains(t, ta.out.String(), "No more following journals exist!")
}

func TestJournalNavigation_NeedsSelection(t *testing.T) {
	ta := newTestApp(t, "")
	seedJournals(ta, "Only")
	ta.load(t)

	assert.Error(t, ta.Journal(context.Background(), []string{"next"}))
	assert.Contains(t, ta.out.String(), "Select an entry first")
}

func TestJournalSearchAndToday(t *testing.T) {
	ta := newTestApp(t, "")
	seedJournals(ta, "Work stress", "Weekend")
	ta.load(t)
	ctx := context.Background()

	require.NoError(t, ta.Journal(ctx, []string{"search", "work"}))
	assert.Contains(t, ta.out.String(), "Work stress")
	assert.NotContains(t, ta.out.String(), "Weekend")

	ta.out.Reset()
	require.NoError(t, ta.Journal(ctx, []string{"search", "nothing"}))
	assert.Contains(t, ta.out.String(), "No journal title matches")

	ta.out.Reset()
	require.NoError(t, ta.Journal(ctx, []string{"today"}))
	assert.Contains(t, ta.out.String(), "Work stress")
	assert.Contains(t, ta.out.String(), "Weekend")
}

func TestJournalCorrect_SavesComplement(t *testing.T) {
	ta := newTestApp(t, "")
	seedJournals(ta, "Monday")
	ta.load(t)
	ctx := context.Background()

	require.NoError(t, ta.Journal(ctx, []string{"show", "1"}))
	require.NoError(t, ta.Journal(ctx, []string{"correct"}))

	j := ta.store.journals[0]
	assert.Equal(t, mood.LabelNotStressed, j.Label)
	assert.Equal(t, mood.ManualProbability, j.Probability)
	assert.True(t, j.ManualCorrection)
}

func TestJournalEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("new title and body", func(t *testing.T) {
		ta := newTestApp(t, "")
		seedJournals(ta, "Monday")
		ta.load(t)
		require.NoError(t, ta.Journal(ctx, []string{"show", "1"}))

		ta.feed("Tuesday\nbetter now\n\ny\n")
		ta.predictor.p = mood.Prediction{Label: mood.LabelNotStressed, Probability: "77.00%"}
		require.NoError(t, ta.Journal(ctx, []string{"edit"}))

		j := ta.store.journals[0]
		assert.Equal(t, "Tuesday", j.Title)
		assert.Equal(t, "better now", j.Body)
		assert.Equal(t, mood.LabelNotStressed, j.Label)
		assert.Equal(t, session.Submitted, ta.journals.State())
	})

	t.Run("nothing changed", func(t *testing.T) {
		ta := newTestApp(t, "")
		seedJournals(ta, "Monday")
		ta.load(t)
		require.NoError(t, ta.Journal(ctx, []string{"show", "1"}))

		ta.feed("\n\n")
		require.NoError(t, ta.Journal(ctx, []string{"edit"}))
		assert.Contains(t, ta.out.String(), "Nothing changed")
		assert.Equal(t, session.Selected, ta.journals.State())
	})
}

func TestJournalDelete_NeedsConfirmation(t *testing.T) {
	ta := newTestApp(t, "")
	seedJournals(ta, "Monday")
	ta.load(t)
	ctx := context.Background()
	require.NoError(t, ta.Journal(ctx, []string{"show", "1"}))

	ta.feed("n\n")
	require.NoError(t, ta.Journal(ctx, []string{"delete"}))
	assert.Len(t, ta.store.journals, 1)
	assert.Equal(t, session.Selected, ta.journals.State())

	ta.feed("y\n")
	require.NoError(t, ta.Journal(ctx, []string{"delete"}))
	assert.Empty(t, ta.store.journals)
	assert.Contains(t, ta.out.String(), "Journal deleted")
}

func TestSelfieNew_CapturesAndSaves(t *testing.T) {
	ta := newTestApp(t, "\n\n")
	ta.predictor.p = mood.Prediction{Label: mood.LabelNotStressed, Probability: "64.20%"}

	require.NoError(t, ta.Selfie(context.Background(), []string{"new"}))
	require.Len(t, ta.store.selfies, 1)
	s := ta.store.selfies[0]
	assert.Equal(t, mood.LabelNotStressed, s.Label)
	assert.NotEmpty(t, ta.store.images[s.ID])
	assert.Contains(t, ta.out.String(), "Selfie #1")
	assert.Contains(t, ta.out.String(), "Selfie saved")

	ta.out.Reset()
	require.NoError(t, ta.Selfie(context.Background(), []string{"list"}))
	assert.Contains(t, ta.out.String(), "#1")
}

func TestSelfieNew_Cancel(t *testing.T) {
	ta := newTestApp(t, "q\n")

	require.NoError(t, ta.Selfie(context.Background(), []string{"new"}))
	assert.Empty(t, ta.store.selfies)
	assert.Contains(t, ta.out.String(), "Cancelled")
	assert.Equal(t, session.Browsing, ta.selfies.State())
}

func TestSelfieShowAndEdit(t *testing.T) {
	ta := newTestApp(t, "")
	ctx := context.Background()
	for i := range 2 {
		at := testNow.Add(time.Duration(i) * time.Minute)
		ta.store.selfies = append(ta.store.selfies, api.Selfie{
			ID: "s" + string(rune('a'+i)), ImageName: "x.jpg",
			Label: mood.LabelStressed, Probability: "70.00%", CreatedAt: at,
		})
	}
	ta.load(t)

	require.NoError(t, ta.Selfie(ctx, []string{"show", "#2"}))
	assert.Contains(t, ta.out.String(), "Selfie #2")

	ta.feed("not stressed\n")
	require.NoError(t, ta.Selfie(ctx, []string{"edit"}))
	assert.Equal(t, mood.LabelNotStressed, ta.store.selfies[1].Label)
	assert.True(t, ta.store.selfies[1].ManualCorrection)
	assert.Equal(t, mood.LabelStressed, ta.store.selfies[0].Label)

	assert.Error(t, ta.Selfie(ctx, []string{"show", "3"}))
}

func TestRatingNew_OncePerDay(t *testing.T) {
	ta := newTestApp(t, "2\nok-ish\n")
	ctx := context.Background()

	require.NoError(t, ta.Rating(ctx, []string{"new"}))
	require.Len(t, ta.store.ratings, 1)
	assert.Equal(t, mood.MildlyStressed, ta.store.ratings[0].Value)
	assert.Equal(t, "ok-ish", ta.store.ratings[0].Message)

	ta.out.Reset()
	ta.feed("5\n\n")
	err := ta.Rating(ctx, []string{"new"})
	assert.ErrorIs(t, err, session.ErrRatedToday)
	assert.Contains(t, ta.out.String(), "already been submitted today")
	assert.Len(t, ta.store.ratings, 1)

	ta.out.Reset()
	require.NoError(t, ta.Rating(ctx, []string{"today"}))
	assert.Contains(t, ta.out.String(), "Mildly Stressed")
}

func TestRatingNew_RejectsUnknownValue(t *testing.T) {
	ta := newTestApp(t, "9\n")

	err := ta.Rating(context.Background(), []string{"new"})
	assert.Error(t, err)
	assert.Empty(t, ta.store.ratings)
	assert.Equal(t, session.Browsing, ta.ratings.State())
}

func TestRatingEditAndDelete(t *testing.T) {
	ta := newTestApp(t, "")
	ta.store.ratings = []api.Rating{{ID: "r1", Value: mood.Neutral, CreatedAt: testNow.Add(-24 * time.Hour)}}
	ta.load(t)
	ctx := context.Background()

	require.NoError(t, ta.Rating(ctx, []string{"show", "1"}))
	ta.feed("Very Positive\n\n")
	require.NoError(t, ta.Rating(ctx, []string{"edit"}))
	assert.Equal(t, mood.VeryPositive, ta.store.ratings[0].Value)

	ta.feed("y\n")
	require.NoError(t, ta.Rating(ctx, []string{"delete"}))
	assert.Empty(t, ta.store.ratings)
}

func TestUnknownSubcommand(t *testing.T) {
	ta := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, ta.Journal(ctx, []string{"fly"}))
	require.NoError(t, ta.Selfie(ctx, []string{"fly"}))
	require.NoError(t, ta.Rating(ctx, []string{"fly"}))
	assert.Contains(t, ta.out.String(), "Unknown journal command: fly")
	assert.Contains(t, ta.out.String(), "Unknown selfie command: fly")
	assert.Contains(t, ta.out.String(), "Unknown rating command: fly")
}
