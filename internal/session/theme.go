package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/BuzzLyutic/things/internal/model"
)

const (
	ThemeCookieName = "theme"
	themeMaxAge     = 365 * 24 * time.Hour
)

// Theme reads the theme preference. A missing or unrecognised cookie means system.
func Theme(r *http.Request) model.Theme {
	c, err := r.Cookie(ThemeCookieName)
	if err != nil {
		return model.ThemeSystem
	}
	t := model.Theme(c.Value)
	if !t.Valid() {
		return model.ThemeSystem
	}
	return t
}

// SetTheme stores the preference. System is stored as the absence of the cookie.
func SetTheme(w http.ResponseWriter, theme model.Theme) {
	c := &http.Cookie{
		Name:     ThemeCookieName,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if theme == model.ThemeLight || theme == model.ThemeDark {
		c.Value = string(theme)
		c.MaxAge = int(themeMaxAge / time.Second)
	} else {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// SafeRedirect returns target when it is a local path, and "/" otherwise.
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
