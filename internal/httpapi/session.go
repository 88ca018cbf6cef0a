package httpapi

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/selection"
)

// SessionName is the cookie holding a leader's confirmed selection.
const SessionName = "rollcall-session"

const (
	yearKey  = "year"
	groupKey = "group"
	dateKey  = "date"
)

// NewSessionStore returns a signed cookie store. secure marks cookies
// Secure; leave it off when serving plain http on localhost.
func NewSessionStore(key string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// LoadSelection puts the session's selection, if any, into the request
// context. Requests without one proceed unchanged; handlers that need a
// selection call selection.Require.
func (h *Handler) LoadSelection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An undecodable cookie yields a fresh, empty session.
		sess, _ := h.Sessions.Get(r, SessionName)

		year, _ := sess.Values[yearKey].(string)
		group, _ := sess.Values[groupKey].(string)
		raw, _ := sess.Values[dateKey].(string)
		if year != "" && group != "" {
			if date, err := attendance.ParseDate(raw); err == nil {
				sel := selection.Selection{Year: year, Group: group, Date: date}
				r = r.WithContext(selection.WithSelection(r.Context(), sel))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) saveSelection(w http.ResponseWriter, r *http.Request, sel selection.Selection) error {
	sess, _ := h.Sessions.Get(r, SessionName)
	sess.Values[yearKey] = sel.Year
	sess.Values[groupKey] = sel.Group
	sess.Values[dateKey] = sel.Date.Format(attendance.DateLayout)
	return sess.Save(r, w)
}
