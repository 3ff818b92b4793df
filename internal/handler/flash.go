package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/reqimple/reqimple/internal/view"
)

// flashCookie carries one notice across a redirect. It is read and
// cleared by the next rendered page.
const flashCookie = "flash"

func setFlash(w http.ResponseWriter, secure bool, f view.Flash) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(f.Kind + "\n" + f.Message)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request, secure bool) *view.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(string(raw), "\n")
	if !ok {
		return nil
	}
	switch kind {
	case view.FlashSuccess, view.FlashDanger, view.FlashInfo:
	default:
		return nil
	}
	return &view.Flash{Kind: kind, Message: msg}
}
