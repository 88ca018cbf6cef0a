// Package selection carries a leader's confirmed (year, group, date) choice
// through a request.
//
// A Selection is built per request, by the CLI from flags or by the HTTP
// layer from the session cookie, and threaded through context. Nothing here
// is process-global.
package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/attendance"
)

var (
	// ErrNotConfirmed is returned when an operation needs a confirmed
	// selection and the context has none.
	ErrNotConfirmed = errors.New("no confirmed group selection")

	// ErrInvalid wraps every error returned by Confirm.
	ErrInvalid = errors.New("invalid selection")
)

// Selection is the group and date a leader is recording attendance for.
type Selection struct {
	Year  string    `json:"year"`
	Group string    `json:"group"`
	Date  time.Time `json:"date"`
}

// Confirm validates a selection: year and group are required and date must
// fall on the attendance day. Values are cleaned like stored cells.
func Confirm(year, group string, date time.Time, day time.Weekday) (Selection, error) {
	sel := Selection{
		Year:  attendance.CleanCell(year),
		Group: attendance.CleanCell(group),
		Date:  date,
	}
	if sel.Year == "" || sel.Group == "" {
		return Selection{}, fmt.Errorf("%w: year and group are required", ErrInvalid)
	}
	if !attendance.IsAttendanceDay(date, day) {
		return Selection{}, fmt.Errorf("%w: %s is a %s; attendance is recorded on %s",
			ErrInvalid, date.Format(attendance.DateLayout), date.Weekday(), day)
	}
	return sel, nil
}

// String renders the selection as year/group@date.
func (s Selection) String() string {
	return fmt.Sprintf("%s/%s@%s", s.Year, s.Group, s.Date.Format(attendance.DateLayout))
}

type ctxKey struct{}

// WithSelection returns a context carrying sel.
func WithSelection(ctx context.Context, sel Selection) context.Context {
	return context.WithValue(ctx, ctxKey{}, sel)
}

// From returns the selection carried by ctx.
func From(ctx context.Context) (Selection, bool) {
	sel, ok := ctx.Value(ctxKey{}).(Selection)
	return sel, ok
}

// Require returns the selection carried by ctx or ErrNotConfirmed.
func Require(ctx context.Context) (Selection, error) {
	sel, ok := From(ctx)
	if !ok {
		return Selection{}, ErrNotConfirmed
	}
	return sel, nil
}
