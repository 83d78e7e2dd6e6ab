package reporting

import (
	"fmt"
	"time"

	"github.com/YeyeJames/jiale15/pkg/types"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

// YearMonth is a calendar month
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a YYYY-MM string
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return YearMonth{}, types.NewValidationError(types.ErrCodeInvalidInput, "month must be in YYYY-MM form", map[string]interface{}{"value": s})
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// First returns the first day of the month
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last day of the month
func (ym YearMonth) Last() time.Time {
	return ym.First().AddDate(0, 1, -1)
}

// Contains reports whether a YYYY-MM-DD date lies in the month, both ends
// inclusive. Dates that do not parse are never contained.
func (ym YearMonth) Contains(date string) bool {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return false
	}
	return !d.Before(ym.First()) && !d.After(ym.Last())
}
