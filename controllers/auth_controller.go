package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nederlearn/cultureclub/config"
	"github.com/nederlearn/cultureclub/models"
	"github.com/nederlearn/cultureclub/utils"
)

// AuthController handles registration, sessions, and account deletion.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// ShowRegister renders the registration form.
func (a *AuthController) ShowRegister(ctx *gin.Context) {
	render(ctx, http.StatusOK, "register.html", gin.H{
		"Errors":   map[string]string{},
		"Username": "",
		"Email":    "",
	})
}

// Register creates the account and its profile in one transaction, then
// starts a session. Account and profile are a single atomic use case: there
// is never a user without exactly one profile.
func (a *AuthController) Register(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")
	confirm := ctx.PostForm("confirm")

	fieldErrors := map[string]string{}
	if l := len([]rune(username)); l < 2 || l > 64 {
		fieldErrors["username"] = "Username must be 2-64 characters."
	} else if !validUsername(username) {
		fieldErrors["username"] = "Username may only contain letters, digits, '-' and '_'."
	}
	if len(password) < 6 || len(password) > 64 {
		fieldErrors["password"] = "Password must be 6-64 characters."
	} else if password != confirm {
		fieldErrors["confirm"] = "Passwords do not match."
	}

	if len(fieldErrors) == 0 {
		var existing models.User
		if err := a.db.Where("username = ?", username).First(&existing).Error; err == nil {
			fieldErrors["username"] = "Username already exists."
		}
	}

	if len(fieldErrors) > 0 {
		render(ctx, http.StatusOK, "register.html", gin.H{
			"Errors":   fieldErrors,
			"Username": username,
			"Email":    email,
		})
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		a.serverError(ctx, err)
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.Profile{
			UserID:    user.ID,
			AvatarURL: config.Get().PlaceholderImage,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if isDuplicateErr(err) {
			render(ctx, http.StatusOK, "register.html", gin.H{
				"Errors":   map[string]string{"username": "Username already exists."},
				"Username": username,
				"Email":    email,
			})
			return
		}
		a.serverError(ctx, err)
		return
	}

	if !a.startSession(ctx, &user) {
		return
	}
	utils.SetFlash(ctx, "Welcome to Culture Club!")
	ctx.Redirect(http.StatusFound, "/")
}

// ShowLogin renders the login form.
func (a *AuthController) ShowLogin(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", gin.H{
		"Error":    "",
		"Username": "",
	})
}

// Login verifies the credentials and starts a session.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")

	var user models.User
	err := a.db.Where("username = ?", username).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, password) {
		// One message for both cases; do not reveal which part was wrong.
		render(ctx, http.StatusOK, "login.html", gin.H{
			"Error":    "Invalid username or password.",
			"Username": username,
		})
		return
	}

	if !a.startSession(ctx, &user) {
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// Logout revokes the session token and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	a.endSession(ctx)
	ctx.Redirect(http.StatusFound, "/login")
}

// ShowManageAccount renders the account page with the delete confirmation.
func (a *AuthController) ShowManageAccount(ctx *gin.Context) {
	render(ctx, http.StatusOK, "account_manage.html", nil)
}

// DeleteAccount removes the current account and everything it owns: profile,
// posts (with their comments and like/bookmark rows), comments written on
// other posts, and the user's own like/bookmark memberships. The session is
// terminated afterwards.
func (a *AuthController) DeleteAccount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		// Memberships held by this user on anyone's posts.
		if err := tx.Exec("DELETE FROM post_likes WHERE user_id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_bookmarks WHERE user_id = ?", userID).Error; err != nil {
			return err
		}
		// Comments this user wrote anywhere.
		if err := tx.Where("user_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// Posts this user authored cascade to their comments and memberships.
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM post_likes WHERE post_id IN ?", postIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM post_bookmarks WHERE post_id IN ?", postIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		a.serverError(ctx, err)
		return
	}

	a.endSession(ctx)
	utils.SetFlash(ctx, "Your account has been deleted.")
	ctx.Redirect(http.StatusFound, "/login")
}

// startSession issues a session token and sets the cookie. It reports false
// after rendering the error page, so callers must not write anything more.
func (a *AuthController) startSession(ctx *gin.Context, user *models.User) bool {
	cfg := config.Get()
	token, err := utils.GenerateToken(user.ID, user.Username, time.Duration(cfg.SessionHours)*time.Hour)
	if err != nil {
		a.serverError(ctx, err)
		return false
	}
	utils.SetSessionCookie(ctx, token)
	return true
}

func (a *AuthController) endSession(ctx *gin.Context) {
	if token, ok := utils.SessionToken(ctx); ok {
		expiresAt := time.Now().Add(time.Duration(config.Get().SessionHours) * time.Hour)
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.RevokeToken(token, expiresAt)
	}
	utils.ClearSessionCookie(ctx)
}

func (a *AuthController) serverError(ctx *gin.Context, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorf("%s %s failed: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}
	render(ctx, http.StatusInternalServerError, "500.html", nil)
}

// validUsername allows letters, digits, '-' and '_'.
func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
