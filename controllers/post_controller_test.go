package controllers_test

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nederlearn/cultureclub/models"
)

func validPostForm(title string) url.Values {
	return url.Values{
		"title":        {title},
		"content":      {"A review worth reading."},
		"excerpt":      {"Short version."},
		"status":       {strconv.Itoa(models.StatusPublished)},
		"release_year": {"1994"},
	}
}

func TestCreatePostDerivesSlugFromTitle(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")

	w := doPost(r, "/blogpost/create", validPostForm("My First Review"), sessionCookie(t, author))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/blogpost/my-first-review", w.Header().Get("Location"))

	var post models.Post
	require.NoError(t, db.Where("slug = ?", "my-first-review").First(&post).Error)
	assert.Equal(t, "My First Review", post.Title)
	assert.Equal(t, author.ID, post.UserID)
	assert.Equal(t, models.StatusPublished, post.Status)
}

func TestCreatePostRejectsDuplicateTitle(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	cookie := sessionCookie(t, author)

	w := doPost(r, "/blogpost/create", validPostForm("My First Review"), cookie)
	require.Equal(t, http.StatusFound, w.Code)

	w = doPost(r, "/blogpost/create", validPostForm("My First Review"), cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Where("title = ?", "My First Review").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreatePostValidatesReleaseYear(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")

	form := validPostForm("Too Old")
	form.Set("release_year", "1799")
	w := doPost(r, "/blogpost/create", form, sessionCookie(t, author))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Release year must be between 1800 and the current year.")

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestUpdatePostKeepsSlugWhenTitleChanges(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	post := createPost(t, db, author, "Original Title", models.StatusPublished)

	form := validPostForm("A Brand New Title")
	w := doPost(r, "/blogpost/update/"+post.Slug, form, sessionCookie(t, author))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/blogpost/"+post.Slug, w.Header().Get("Location"))

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "A Brand New Title", reloaded.Title)
	assert.Equal(t, "original-title", reloaded.Slug)
}

func TestNonOwnerCannotUpdateOrDelete(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	intruder := createUser(t, db, "mallory")
	post := createPost(t, db, author, "Untouchable", models.StatusPublished)
	cookie := sessionCookie(t, intruder)

	w := doGet(r, "/blogpost/update/"+post.Slug, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doPost(r, "/blogpost/update/"+post.Slug, validPostForm("Hijacked"), cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doPost(r, "/blogpost/delete/"+post.Slug, nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "Untouchable", reloaded.Title)
}

func TestDeletePostRemovesCommentsAndMemberships(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	reader := createUser(t, db, "bob")
	post := createPost(t, db, author, "Going Away", models.StatusPublished)

	require.NoError(t, db.Create(&models.Comment{
		PostID: post.ID, UserID: reader.ID, Body: "So long", Approved: true,
	}).Error)
	doPost(r, "/blogpost/like/"+post.Slug, nil, sessionCookie(t, reader))

	w := doPost(r, "/blogpost/delete/"+post.Slug, nil, sessionCookie(t, author))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/my-posts", w.Header().Get("Location"))

	var n int64
	db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&n)
	assert.EqualValues(t, 0, n)
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&n)
	assert.EqualValues(t, 0, n)
	db.Table("post_likes").Where("post_id = ?", post.ID).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestDraftsAreInvisibleOutsideMyPosts(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	draft := createPost(t, db, author, "Secret Draft", models.StatusDraft)
	cookie := sessionCookie(t, author)

	w := doGet(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Secret Draft")

	// The public detail page hides drafts even from their author.
	w = doGet(r, "/blogpost/"+draft.Slug, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doGet(r, "/blogpost/"+draft.Slug)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doGet(r, "/my-posts", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Secret Draft")
	assert.Contains(t, w.Body.String(), "Draft")
}

func TestHomePaginatesSixPerPage(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	for i := 0; i < 7; i++ {
		createPost(t, db, author, "Review Number "+strconv.Itoa(i), models.StatusPublished)
	}

	w := doGet(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 6, strings.Count(body, `class="post-card"`))
	assert.Contains(t, body, "Page 1 of 2")

	w = doGet(r, "/?page=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, strings.Count(w.Body.String(), `class="post-card"`))
}

func TestHomeFiltersByExactCategoryName(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	books := createCategory(t, db, "Books")
	createCategory(t, db, "Movies")

	tagged := createPost(t, db, author, "A Book Review", models.StatusPublished)
	require.NoError(t, db.Model(tagged).Update("media_category_id", books.ID).Error)
	createPost(t, db, author, "A Movie Review", models.StatusPublished)

	w := doGet(r, "/?category=Books")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A Book Review")
	assert.NotContains(t, w.Body.String(), "A Movie Review")

	// The filter matches names exactly, including case.
	w = doGet(r, "/?category=books")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "A Book Review")
}

func TestLikeToggleIsAnInvolution(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	reader := createUser(t, db, "bob")
	post := createPost(t, db, author, "Likeable", models.StatusPublished)
	cookie := sessionCookie(t, reader)

	count := func() int64 {
		var n int64
		db.Table("post_likes").Where("post_id = ? AND user_id = ?", post.ID, reader.ID).Count(&n)
		return n
	}

	w := doPost(r, "/blogpost/like/"+post.Slug, nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/blogpost/"+post.Slug, w.Header().Get("Location"))
	assert.EqualValues(t, 1, count())

	w = doPost(r, "/blogpost/like/"+post.Slug, nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.EqualValues(t, 0, count())
}

func TestBookmarkToggleAndListing(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	reader := createUser(t, db, "bob")
	post := createPost(t, db, author, "Keeper", models.StatusPublished)
	cookie := sessionCookie(t, reader)

	w := doPost(r, "/bookmark-unbookmark/"+post.Slug, nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)

	w = doGet(r, "/saved-for-later", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Keeper")

	w = doPost(r, "/bookmark-unbookmark/"+post.Slug, nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)

	w = doGet(r, "/saved-for-later", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Keeper")
}

func TestSavedForLaterIsEmptyForAnonymousVisitors(t *testing.T) {
	_, r := newTestRouter(t)

	w := doGet(r, "/saved-for-later")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nothing saved yet")
}

func TestNewCommentsStartUnapproved(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	reader := createUser(t, db, "bob")
	post := createPost(t, db, author, "Discussable", models.StatusPublished)

	w := doPost(r, "/blogpost/"+post.Slug, url.Values{"body": {"Great review!"}}, sessionCookie(t, reader))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "awaiting moderation")
	assert.NotContains(t, w.Body.String(), "Great review!")

	var comment models.Comment
	require.NoError(t, db.Where("post_id = ?", post.ID).First(&comment).Error)
	assert.Equal(t, reader.ID, comment.UserID)
	assert.False(t, comment.Approved)

	// Still hidden from the public page until a moderator approves it.
	w = doGet(r, "/blogpost/"+post.Slug)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Great review!")
}

func TestCommentingRequiresLogin(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	post := createPost(t, db, author, "Discussable", models.StatusPublished)

	w := doPost(r, "/blogpost/"+post.Slug, url.Values{"body": {"Anonymous thoughts"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var n int64
	db.Model(&models.Comment{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestEmptyCommentIsRejected(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")
	reader := createUser(t, db, "bob")
	post := createPost(t, db, author, "Discussable", models.StatusPublished)

	w := doPost(r, "/blogpost/"+post.Slug, url.Values{"body": {"   "}}, sessionCookie(t, reader))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Comment cannot be empty.")

	var n int64
	db.Model(&models.Comment{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestApproveCommentIsAdminOnly(t *testing.T) {
	db, r := newTestRouter(t)
	admin := createUser(t, db, "admin")
	author := createUser(t, db, "alice")
	reader := createUser(t, db, "bob")
	post := createPost(t, db, author, "Moderated", models.StatusPublished)

	comment := &models.Comment{PostID: post.ID, UserID: reader.ID, Body: "Needs a look"}
	require.NoError(t, db.Create(comment).Error)
	path := "/moderation/comments/" + strconv.FormatUint(uint64(comment.ID), 10) + "/approve"

	// Non-admins cannot tell the endpoint exists.
	w := doPost(r, path, nil, sessionCookie(t, reader))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doPost(r, path, nil, sessionCookie(t, admin))
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Comment
	require.NoError(t, db.First(&reloaded, comment.ID).Error)
	assert.True(t, reloaded.Approved)

	// Approved comments show up on the public detail page.
	w = doGet(r, "/blogpost/"+post.Slug)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Needs a look")
}

func TestUnsupportedMethodsGet405(t *testing.T) {
	_, r := newTestRouter(t)

	w := doPost(r, "/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = doGet(r, "/logout")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUnknownSlugRenders404(t *testing.T) {
	_, r := newTestRouter(t)

	w := doGet(r, "/blogpost/never-written")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404")
}

func TestCreateDraftStoresDraftStatus(t *testing.T) {
	db, r := newTestRouter(t)
	author := createUser(t, db, "alice")

	form := validPostForm("Work In Progress")
	form.Set("status", strconv.Itoa(models.StatusDraft))
	w := doPost(r, "/blogpost/create", form, sessionCookie(t, author))
	require.Equal(t, http.StatusFound, w.Code)

	// The zero-value status must survive the insert verbatim.
	var post models.Post
	require.NoError(t, db.Where("slug = ?", "work-in-progress").First(&post).Error)
	assert.Equal(t, models.StatusDraft, post.Status)

	w = doGet(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Work In Progress")

	w = doGet(r, "/blogpost/work-in-progress", sessionCookie(t, author))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
