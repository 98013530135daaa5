package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gurkanbulca/taskdesk/pkg/notify"
)

// flashCookie carries the notices raised by a request to the page the
// browser is redirected to.
const flashCookie = "taskdesk_flash"

type flashNotice struct {
	Level   notify.Level `json:"level"`
	Message string       `json:"message"`
}

// writeFlash stores notices for the next render. No cookie is set when
// there is nothing to show.
func writeFlash(w http.ResponseWriter, r *http.Request, notices []notify.Notice) {
	if len(notices) == 0 {
		return
	}
	out := make([]flashNotice, 0, len(notices))
	for _, n := range notices {
		out = append(out, flashNotice{Level: n.Level, Message: n.Message})
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// readFlash returns the pending notices and expires the cookie.
func readFlash(w http.ResponseWriter, r *http.Request) []flashNotice {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	raw := strings.TrimSpace(cookie.Value)
	if raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var notices []flashNotice
	if err := json.Unmarshal(decoded, &notices); err != nil {
		return nil
	}
	return notices
}
