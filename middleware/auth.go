package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nederlearn/cultureclub/models"
	"github.com/nederlearn/cultureclub/utils"
)

const (
	// ContextUserKey stores the loaded *models.User for the current session, if any.
	ContextUserKey = "current_user"
	// ContextUserIDKey stores the authenticated user ID.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
)

// CurrentUser resolves the session cookie into a user and stores it in the
// context. It never aborts: anonymous requests simply carry no user.
func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := utils.SessionToken(ctx)
		if !ok {
			ctx.Next()
			return
		}

		if utils.IsTokenRevoked(token) {
			ctx.Next()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			ctx.Next()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			// Stale cookie for a deleted account.
			ctx.Next()
			return
		}

		ctx.Set(ContextUserKey, &user)
		ctx.Set(ContextUserIDKey, user.ID)
		ctx.Set(ContextUsernameKey, user.Username)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous requests to the login page.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, exists := ctx.Get(ContextUserIDKey); !exists {
			ctx.Redirect(http.StatusFound, "/login")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
