package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nederlearn/cultureclub/config"
	"github.com/nederlearn/cultureclub/middleware"
	"github.com/nederlearn/cultureclub/models"
	"github.com/nederlearn/cultureclub/utils"
)

// Every post listing shows six posts per page.
const pageSize = 6

// render wraps ctx.HTML and injects the data every template expects:
// the session user and any pending flash message.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = currentUser(ctx)
	data["Flash"] = utils.PopFlash(ctx)
	ctx.HTML(status, name, data)
}

// renderNotFound responds with the rendered 404 page. Ownership failures use
// this too, so non-owners cannot distinguish "missing" from "not yours".
func renderNotFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "404.html", nil)
}

// About renders the static about page.
func About(ctx *gin.Context) {
	render(ctx, http.StatusOK, "about_us.html", nil)
}

// NotFound is the router-level handler for unmatched paths.
func NotFound(ctx *gin.Context) {
	renderNotFound(ctx)
}

// MethodNotAllowed responds with a rendered 405 page for unsupported verbs.
func MethodNotAllowed(ctx *gin.Context) {
	render(ctx, http.StatusMethodNotAllowed, "405.html", nil)
}

func currentUser(ctx *gin.Context) *models.User {
	value, exists := ctx.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

func parsePage(pageStr string) int {
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		return p
	}
	return 1
}

// paginationContext builds the template context shared by every listing page.
func paginationContext(page int, total int64) gin.H {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return gin.H{
		"Page":       page,
		"TotalPages": totalPages,
		"Total":      total,
		"HasPrev":    page > 1,
		"HasNext":    page < totalPages,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
	}
}
