package controllers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nederlearn/cultureclub/config"
	"github.com/nederlearn/cultureclub/models"
)

func registerForm(username string) url.Values {
	return url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {testPassword},
		"confirm":  {testPassword},
	}
}

func TestRegisterCreatesUserWithProfile(t *testing.T) {
	db, r := newTestRouter(t)

	w := doPost(r, "/register", registerForm("carol"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var user models.User
	require.NoError(t, db.Where("username = ?", "carol").First(&user).Error)

	// The profile exists before the first response is ever rendered.
	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, config.Get().PlaceholderImage, profile.AvatarURL)

	// Registration also starts a session.
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == config.Get().SessionCookieName && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a session cookie after registration")
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	db, r := newTestRouter(t)
	createUser(t, db, "carol")

	w := doPost(r, "/register", registerForm("carol"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists.")

	var n int64
	db.Model(&models.User{}).Where("username = ?", "carol").Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	db, r := newTestRouter(t)

	form := registerForm("carol")
	form.Set("confirm", "something-else")
	w := doPost(r, "/register", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match.")

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestRegisterRejectsInvalidUsername(t *testing.T) {
	db, r := newTestRouter(t)

	form := registerForm("has spaces")
	w := doPost(r, "/register", form)
	require.Equal(t, http.StatusOK, w.Code)

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestLoginWithWrongPassword(t *testing.T) {
	db, r := newTestRouter(t)
	createUser(t, db, "carol")

	w := doPost(r, "/login", url.Values{"username": {"carol"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password.")

	// Unknown usernames get the same answer.
	w = doPost(r, "/login", url.Values{"username": {"nobody"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password.")
}

func TestLoginThenLogoutRevokesSession(t *testing.T) {
	db, r := newTestRouter(t)
	createUser(t, db, "carol")

	w := doPost(r, "/login", url.Values{"username": {"carol"}, "password": {testPassword}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == config.Get().SessionCookieName && c.Value != "" {
			session = c
		}
	}
	require.NotNil(t, session)

	w = doGet(r, "/my-posts", session)
	require.Equal(t, http.StatusOK, w.Code)

	w = doPost(r, "/logout", nil, session)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// The old token no longer opens protected pages.
	w = doGet(r, "/my-posts", session)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestDeleteAccountCascades(t *testing.T) {
	db, r := newTestRouter(t)
	leaving := createUser(t, db, "carol")
	other := createUser(t, db, "dave")

	ownPost := createPost(t, db, leaving, "My Last Review", models.StatusPublished)
	otherPost := createPost(t, db, other, "Staying Around", models.StatusPublished)

	require.NoError(t, db.Create(&models.Comment{
		PostID: otherPost.ID, UserID: leaving.ID, Body: "Goodbye", Approved: true,
	}).Error)
	require.NoError(t, db.Create(&models.Comment{
		PostID: ownPost.ID, UserID: other.ID, Body: "Stay!", Approved: true,
	}).Error)
	doPost(r, "/blogpost/like/"+otherPost.Slug, nil, sessionCookie(t, leaving))
	doPost(r, "/blogpost/like/"+ownPost.Slug, nil, sessionCookie(t, other))

	w := doPost(r, "/account/delete", nil, sessionCookie(t, leaving))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var n int64
	db.Model(&models.User{}).Where("id = ?", leaving.ID).Count(&n)
	assert.EqualValues(t, 0, n, "user row")
	db.Model(&models.Profile{}).Where("user_id = ?", leaving.ID).Count(&n)
	assert.EqualValues(t, 0, n, "profile row")
	db.Model(&models.Post{}).Where("user_id = ?", leaving.ID).Count(&n)
	assert.EqualValues(t, 0, n, "authored posts")
	db.Model(&models.Comment{}).Where("user_id = ?", leaving.ID).Count(&n)
	assert.EqualValues(t, 0, n, "authored comments")
	db.Table("post_likes").Where("user_id = ?", leaving.ID).Count(&n)
	assert.EqualValues(t, 0, n, "likes by the user")

	// Comments on the deleted user's posts go with the posts.
	db.Model(&models.Comment{}).Where("post_id = ?", ownPost.ID).Count(&n)
	assert.EqualValues(t, 0, n, "comments on deleted posts")

	// The other account and its post are untouched.
	db.Model(&models.User{}).Where("id = ?", other.ID).Count(&n)
	assert.EqualValues(t, 1, n)
	db.Model(&models.Post{}).Where("id = ?", otherPost.ID).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestProtectedPagesRedirectAnonymousToLogin(t *testing.T) {
	_, r := newTestRouter(t)

	for _, path := range []string{"/my-posts", "/profile", "/profile/edit", "/account/manage", "/blogpost/create"} {
		w := doGet(r, path)
		require.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}

func TestLogoutRevokesOnlyThatSession(t *testing.T) {
	db, r := newTestRouter(t)
	user := createUser(t, db, "carol")

	first := sessionCookie(t, user)
	second := sessionCookie(t, user)

	w := doPost(r, "/logout", nil, first)
	require.Equal(t, http.StatusFound, w.Code)

	w = doGet(r, "/my-posts", first)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// A concurrent session for the same account stays alive.
	w = doGet(r, "/my-posts", second)
	require.Equal(t, http.StatusOK, w.Code)
}
