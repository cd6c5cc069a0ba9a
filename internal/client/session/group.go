package session

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
)

// DateGroup is one calendar date and the rows created on it.
type DateGroup[T any] struct {
	Date time.Time
	Rows []T
}

// Label renders the group date as YYYY-MM-DD.
func (g DateGroup[T]) Label() string { return g.Date.Format(timex.DateLayout) }

// GroupByDate groups rows by the calendar date of createdAt in loc. Groups
// appear in the order of their first row and rows keep their order within
// a group, so an ascending list yields ascending groups.
func GroupByDate[T any](rows []T, createdAt func(T) time.Time, loc *time.Location) []DateGroup[T] {
	var groups []DateGroup[T]
	index := make(map[string]int)

	for _, r := range rows {
		d := timex.DateIn(createdAt(r), loc)
		key := d.Format(timex.DateLayout)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup[T]{Date: d})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// OnDate returns the rows created on the calendar date of day in loc.
func OnDate[T any](rows []T, createdAt func(T) time.Time, day time.Time, loc *time.Location) []T {
	var out []T
	for _, r := range rows {
		if timex.SameDate(createdAt(r), day, loc) {
			out = append(out, r)
		}
	}
	return out
}

// SearchTitles returns journals whose title contains q, case-insensitively.
func SearchTitles(journals []api.Journal, q string) []api.Journal {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []api.Journal
	for _, j := range journals {
		if strings.Contains(strings.ToLower(j.Title), q) {
			out = append(out, j)
		}
	}
	return out
}

func JournalCreatedAt(j api.Journal) time.Time { return j.CreatedAt }
func SelfieCreatedAt(s api.Selfie) time.Time   { return s.CreatedAt }
func RatingCreatedAt(r api.Rating) time.Time   { return r.CreatedAt }
