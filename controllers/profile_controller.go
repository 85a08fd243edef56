package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nederlearn/cultureclub/models"
	"github.com/nederlearn/cultureclub/utils"
)

// ProfileController serves profile pages and the profile edit form.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a ProfileController.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// OwnProfile shows the current user's profile.
func (pc *ProfileController) OwnProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	profile, user, ok := pc.profileByUserID(ctx, userID)
	if !ok {
		return
	}

	render(ctx, http.StatusOK, "profile.html", gin.H{
		"Profile":      profile,
		"ProfileUser":  user,
		"IsOwnProfile": true,
	})
}

// OtherProfile shows any user's profile by username. Viewing is open to
// everyone; the template only needs to know whether it is the viewer's own.
func (pc *ProfileController) OtherProfile(ctx *gin.Context) {
	username := ctx.Param("username")

	var user models.User
	if err := pc.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return
		}
		pc.serverError(ctx, err)
		return
	}

	profile, _, ok := pc.profileByUserID(ctx, user.ID)
	if !ok {
		return
	}

	currentID, _ := getUserID(ctx)
	render(ctx, http.StatusOK, "profile.html", gin.H{
		"Profile":      profile,
		"ProfileUser":  &user,
		"IsOwnProfile": currentID == user.ID,
	})
}

// ShowEdit renders the profile edit form for the current user. There is no
// by-ID path here: the form always operates on the session account.
func (pc *ProfileController) ShowEdit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	profile, _, ok := pc.profileByUserID(ctx, userID)
	if !ok {
		return
	}

	render(ctx, http.StatusOK, "profile_edit.html", gin.H{
		"Profile": profile,
		"Errors":  map[string]string{},
	})
}

// Edit applies the profile form, including an optional avatar upload.
func (pc *ProfileController) Edit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	profile, _, ok := pc.profileByUserID(ctx, userID)
	if !ok {
		return
	}

	profile.Bio = utils.Sanitize(strings.TrimSpace(ctx.PostForm("bio")))
	profile.Country = utils.StripTags(strings.TrimSpace(ctx.PostForm("country")))
	profile.TopMovies = utils.StripTags(strings.TrimSpace(ctx.PostForm("top_movies")))
	profile.TopSeries = utils.StripTags(strings.TrimSpace(ctx.PostForm("top_series")))
	profile.TopMusicAlbums = utils.StripTags(strings.TrimSpace(ctx.PostForm("top_music_albums")))
	profile.TopBooks = utils.StripTags(strings.TrimSpace(ctx.PostForm("top_books")))
	profile.TopPodcasts = utils.StripTags(strings.TrimSpace(ctx.PostForm("top_podcasts")))
	profile.TopMiscellaneous = utils.StripTags(strings.TrimSpace(ctx.PostForm("top_miscellaneous")))

	if file, header, err := ctx.Request.FormFile("avatar"); err == nil {
		url, err := utils.SaveImageUpload(file, header)
		if err != nil {
			render(ctx, http.StatusOK, "profile_edit.html", gin.H{
				"Profile": profile,
				"Errors":  map[string]string{"avatar": err.Error()},
			})
			return
		}
		profile.AvatarURL = url
	}

	if err := pc.db.Save(profile).Error; err != nil {
		pc.serverError(ctx, err)
		return
	}

	utils.SetFlash(ctx, "Your profile has been updated successfully.")
	ctx.Redirect(http.StatusFound, "/profile")
}

// profileByUserID loads the profile and its owner, rendering 404 when either
// is missing.
func (pc *ProfileController) profileByUserID(ctx *gin.Context, userID uint) (*models.Profile, *models.User, bool) {
	var profile models.Profile
	if err := pc.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return nil, nil, false
		}
		pc.serverError(ctx, err)
		return nil, nil, false
	}

	var user models.User
	if err := pc.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return nil, nil, false
		}
		pc.serverError(ctx, err)
		return nil, nil, false
	}

	return &profile, &user, true
}

func (pc *ProfileController) serverError(ctx *gin.Context, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorf("%s %s failed: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}
	render(ctx, http.StatusInternalServerError, "500.html", nil)
}
