package session

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_Transitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Browsing, Creating, true},
		{Browsing, Editing, false},
		{Creating, AwaitingPrediction, true},
		{AwaitingPrediction, Submitted, true},
		{Submitted, Deleting, true},
		{Selected, Editing, true},
		{Editing, Resubmitting, true},
		{Editing, Submitted, false},
		{Resubmitting, Submitted, true},
		{Deleting, Creating, false},
		{Deleting, Browsing, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			m := machine{state: tt.from}
			err := m.to(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, m.state)
				return
			}
			assert.ErrorIs(t, err, common.ErrInvalidTransition)
			assert.Equal(t, tt.from, m.state)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting prediction", AwaitingPrediction.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestBrowser_InteriorHasNoMessage(t *testing.T) {
	b := newBrowser("journal", func(j api.Journal) string { return j.ID })
	b.reset([]api.Journal{{ID: "a"}, {ID: "b"}, {ID: "c"}}, "b")

	require.True(t, b.step(+1))
	assert.False(t, b.step(+1))
	assert.Equal(t, "c", b.currentID())
	assert.False(t, b.nav.NextEnabled)

	require.True(t, b.step(-1))
	assert.Equal(t, Nav{PrevEnabled: true, NextEnabled: true}, b.nav)

	assert.ErrorIs(t, b.selectID("zz"), common.ErrNotFound)
	b.reset(nil, "b")
	_, ok := b.current()
	assert.False(t, ok)
	assert.False(t, b.step(-1))
}

func TestGroupByDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	at := func(s string) time.Time {
		tm, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return tm
	}
	rows := []api.Rating{
		{ID: "1", CreatedAt: at("2024-03-10T03:00:00Z")}, // 22:00 on the 9th
		{ID: "2", CreatedAt: at("2024-03-10T12:00:00Z")},
		{ID: "3", CreatedAt: at("2024-03-10T20:00:00Z")},
		{ID: "4", CreatedAt: at("2024-03-11T06:00:00Z")}, // 01:00 on the 11th
	}

	groups := GroupByDate(rows, RatingCreatedAt, loc)
	require.Len(t, groups, 3)
	assert.Equal(t, "2024-03-09", groups[0].Label())
	assert.Equal(t, "2024-03-10", groups[1].Label())
	assert.Len(t, groups[1].Rows, 2)
	assert.Equal(t, "2024-03-11", groups[2].Label())

	on := OnDate(rows, RatingCreatedAt, at("2024-03-10T23:59:00Z"), loc)
	assert.Len(t, on, 2)
}

func TestSearchTitles(t *testing.T) {
	js := []api.Journal{{Title: "Rainy Monday"}, {Title: "sunny"}, {Title: "Monday again"}}
	assert.Len(t, SearchTitles(js, " monday "), 2)
	assert.Len(t, SearchTitles(js, ""), 3)
}
