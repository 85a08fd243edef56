package utils

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const flashCookieName = "cultureclub_flash"

// SetFlash stores a one-shot notification shown on the next rendered page.
func SetFlash(ctx *gin.Context, message string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(flashCookieName, url.QueryEscape(message), 60, "/", "", false, true)
}

// PopFlash returns the pending notification, if any, and clears it.
func PopFlash(ctx *gin.Context) string {
	raw, err := ctx.Cookie(flashCookieName)
	if err != nil || raw == "" {
		return ""
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(flashCookieName, "", -1, "/", "", false, true)
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}
