package mood

import (
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Value is a daily mood rating.
type Value string

const (
	VeryStressed   Value = "Very Stressed"
	MildlyStressed Value = "Mildly Stressed"
	Neutral        Value = "Neutral"
	MildlyPositive Value = "Mildly Positive"
	VeryPositive   Value = "Very Positive"
)

// Values lists the ratings in display order.
var Values = []Value{VeryStressed, MildlyStressed, Neutral, MildlyPositive, VeryPositive}

func (v Value) Valid() bool {
	for _, x := range Values {
		if v == x {
			return true
		}
	}
	return false
}

// ParseValue accepts a rating label or its 1-based position in Values.
func ParseValue(s string) (Value, error) {
	for i, v := range Values {
		if s == string(v) || s == fmt.Sprint(i+1) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mood rating %q", common.ErrValidation, s)
}
