package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/nederlearn/cultureclub/config"
	"github.com/nederlearn/cultureclub/models"
	"github.com/nederlearn/cultureclub/utils"
)

// Oldest release year a review may reference.
const minReleaseYear = 1800

const maxCommentLength = 1500

// PostController manages review posts, comments, likes and bookmarks.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// postForm carries the create/update form fields.
type postForm struct {
	Title           string `form:"title"`
	Content         string `form:"content"`
	Excerpt         string `form:"excerpt"`
	Status          string `form:"status"`
	MediaCategoryID string `form:"media_category"`
	ReleaseYear     string `form:"release_year"`
	MediaLink       string `form:"media_link"`
}

// Home lists published posts, newest first, optionally narrowed to an exact
// media category name.
func (p *PostController) Home(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))
	category := strings.TrimSpace(ctx.Query("category"))

	query := p.db.Model(&models.Post{}).
		Where("status = ?", models.StatusPublished).
		Order("created_at DESC")
	if category != "" {
		// Exact, case-sensitive name match; no partial matching.
		query = query.Joins("JOIN media_categories ON media_categories.id = posts.media_category_id").
			Where("media_categories.name = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	var posts []models.Post
	if err := query.Preload("User").Preload("MediaCategory").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&posts).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	var categories []models.MediaCategory
	if err := p.db.Order("name").Find(&categories).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	render(ctx, http.StatusOK, "index.html", gin.H{
		"Posts":          posts,
		"Categories":     categories,
		"ActiveCategory": category,
		"Pagination":     paginationContext(page, total),
	})
}

// Detail shows a published post with its approved comments and the empty
// comment form.
func (p *PostController) Detail(ctx *gin.Context) {
	post, ok := p.publishedBySlug(ctx)
	if !ok {
		return
	}
	p.renderDetail(ctx, post, detailState{})
}

// SubmitComment validates and persists a comment against a published post,
// then re-renders the detail page. New comments always start unapproved.
func (p *PostController) SubmitComment(ctx *gin.Context) {
	post, ok := p.publishedBySlug(ctx)
	if !ok {
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(ctx.PostForm("body")))
	state := detailState{CommentBody: body}
	switch {
	case body == "":
		state.CommentError = "Comment cannot be empty."
	case len([]rune(body)) > maxCommentLength:
		state.CommentError = "Comment is too long (1500 characters max)."
	}
	if state.CommentError != "" {
		p.renderDetail(ctx, post, state)
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: userID,
		Body:   body,
		// Moderation decides visibility; authors cannot approve themselves.
		Approved: false,
	}
	if err := p.db.Create(&comment).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	p.renderDetail(ctx, post, detailState{Commented: true})
}

// detailState carries the per-request bits of the detail page: comment form
// feedback and the submitted-successfully marker.
type detailState struct {
	Commented    bool
	CommentBody  string
	CommentError string
}

func (p *PostController) renderDetail(ctx *gin.Context, post *models.Post, state detailState) {
	var comments []models.Comment
	if err := p.db.Where("post_id = ? AND approved = ?", post.ID, true).
		Preload("User").Order("created_at ASC").
		Find(&comments).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	liked, bookmarked := false, false
	if userID, ok := getUserID(ctx); ok {
		liked = p.isMember("post_likes", post.ID, userID)
		bookmarked = p.isMember("post_bookmarks", post.ID, userID)
	}

	likeCount := p.db.Model(post).Association("Likes").Count()
	bookmarkCount := p.db.Model(post).Association("Bookmarks").Count()

	userID, _ := getUserID(ctx)
	render(ctx, http.StatusOK, "blogpost_detail.html", gin.H{
		"Post":          post,
		"Comments":      comments,
		"Liked":         liked,
		"Bookmarked":    bookmarked,
		"LikeCount":     likeCount,
		"BookmarkCount": bookmarkCount,
		"IsAuthor":      userID == post.UserID,
		"Commented":     state.Commented,
		"CommentBody":   state.CommentBody,
		"CommentError":  state.CommentError,
	})
}

// ShowCreate renders the empty post form.
func (p *PostController) ShowCreate(ctx *gin.Context) {
	p.renderPostForm(ctx, "blogpost_create.html", postForm{Status: strconv.Itoa(models.StatusPublished)}, nil, "")
}

// Create validates the form and stores a new post owned by the current user.
// The slug is derived from the title here, exactly once.
func (p *PostController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	var form postForm
	_ = ctx.ShouldBind(&form)
	post, fieldErrors := p.validatePostForm(ctx, &form, 0)
	if len(fieldErrors) > 0 {
		p.renderPostForm(ctx, "blogpost_create.html", form, fieldErrors, "")
		return
	}

	post.UserID = userID
	post.Slug = slug.Make(post.Title)
	if post.FeaturedImage == "" {
		post.FeaturedImage = config.Get().PlaceholderImage
	}

	if err := p.db.Create(post).Error; err != nil {
		if isDuplicateErr(err) {
			fieldErrors["title"] = "A post with this title already exists."
			p.renderPostForm(ctx, "blogpost_create.html", form, fieldErrors, "")
			return
		}
		p.serverError(ctx, err)
		return
	}

	utils.SetFlash(ctx, "Your blog post has been created successfully.")
	ctx.Redirect(http.StatusFound, "/blogpost/"+post.Slug)
}

// ShowUpdate renders the edit form for a post the current user owns.
// Unknown slugs and other people's posts are indistinguishable: both 404.
func (p *PostController) ShowUpdate(ctx *gin.Context) {
	post, ok := p.ownedBySlug(ctx)
	if !ok {
		return
	}
	form := postForm{
		Title:       post.Title,
		Content:     post.Content,
		Excerpt:     post.Excerpt,
		Status:      strconv.Itoa(post.Status),
		ReleaseYear: strconv.Itoa(post.ReleaseYear),
		MediaLink:   post.MediaLink,
	}
	if post.MediaCategoryID != nil {
		form.MediaCategoryID = strconv.FormatUint(uint64(*post.MediaCategoryID), 10)
	}
	p.renderPostForm(ctx, "blogpost_update.html", form, nil, post.Slug)
}

// Update applies the edit form to an owned post. The slug never changes,
// even when the title does.
func (p *PostController) Update(ctx *gin.Context) {
	post, ok := p.ownedBySlug(ctx)
	if !ok {
		return
	}

	var form postForm
	_ = ctx.ShouldBind(&form)
	updated, fieldErrors := p.validatePostForm(ctx, &form, post.ID)
	if len(fieldErrors) > 0 {
		p.renderPostForm(ctx, "blogpost_update.html", form, fieldErrors, post.Slug)
		return
	}

	post.Title = updated.Title
	post.Content = updated.Content
	post.Excerpt = updated.Excerpt
	post.Status = updated.Status
	post.MediaCategoryID = updated.MediaCategoryID
	post.ReleaseYear = updated.ReleaseYear
	post.MediaLink = updated.MediaLink
	if updated.FeaturedImage != "" {
		post.FeaturedImage = updated.FeaturedImage
	}

	if err := p.db.Save(post).Error; err != nil {
		if isDuplicateErr(err) {
			fieldErrors = map[string]string{"title": "A post with this title already exists."}
			p.renderPostForm(ctx, "blogpost_update.html", form, fieldErrors, post.Slug)
			return
		}
		p.serverError(ctx, err)
		return
	}

	utils.SetFlash(ctx, "Your blog post has been updated successfully.")
	ctx.Redirect(http.StatusFound, "/blogpost/"+post.Slug)
}

// ShowDelete renders the delete confirmation page for an owned post.
func (p *PostController) ShowDelete(ctx *gin.Context) {
	post, ok := p.ownedBySlug(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "blogpost_delete.html", gin.H{"Post": post})
}

// Delete removes an owned post together with its comments and its
// like/bookmark membership rows, in one transaction.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.ownedBySlug(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_likes WHERE post_id = ?", post.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_bookmarks WHERE post_id = ?", post.ID).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		p.serverError(ctx, err)
		return
	}

	utils.SetFlash(ctx, "Your blog post has been deleted successfully.")
	ctx.Redirect(http.StatusFound, "/my-posts")
}

// MyPosts lists the current user's posts regardless of status, so drafts stay
// reachable for their author.
func (p *PostController) MyPosts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	page := parsePage(ctx.Query("page"))
	query := p.db.Model(&models.Post{}).Where("user_id = ?", userID).Order("created_at DESC")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	var posts []models.Post
	if err := query.Preload("MediaCategory").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&posts).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	render(ctx, http.StatusOK, "my_posts.html", gin.H{
		"Posts":      posts,
		"Pagination": paginationContext(page, total),
	})
}

// Bookmarked lists the posts the current user saved for later. Anonymous
// visitors get an empty page rather than an error.
func (p *PostController) Bookmarked(ctx *gin.Context) {
	var posts []models.Post
	if userID, ok := getUserID(ctx); ok {
		if err := p.db.
			Joins("JOIN post_bookmarks ON post_bookmarks.post_id = posts.id").
			Where("post_bookmarks.user_id = ?", userID).
			Preload("User").Preload("MediaCategory").
			Order("posts.created_at DESC").
			Find(&posts).Error; err != nil {
			p.serverError(ctx, err)
			return
		}
	}

	render(ctx, http.StatusOK, "bookmarked.html", gin.H{"Posts": posts})
}

// ToggleLike flips the (post, user) like membership and returns to the post.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	p.toggleMembership(ctx, "Likes", "post_likes", "", "")
}

// ToggleBookmark flips the (post, user) bookmark membership and returns to the post.
func (p *PostController) ToggleBookmark(ctx *gin.Context) {
	p.toggleMembership(ctx, "Bookmarks", "post_bookmarks", "Added to 'Bookmarked'.", "Removed from 'Bookmarked'.")
}

// toggleMembership implements the shared idempotent toggle: if the user is a
// member of the set, remove them; otherwise add them. Toggling twice always
// restores the original state.
func (p *PostController) toggleMembership(ctx *gin.Context, association, table, addMsg, removeMsg string) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	slugParam := ctx.Param("slug")
	var post models.Post
	if err := p.db.Where("slug = ?", slugParam).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return
		}
		p.serverError(ctx, err)
		return
	}

	member := models.User{ID: userID}
	if p.isMember(table, post.ID, userID) {
		if err := p.db.Model(&post).Association(association).Delete(&member); err != nil {
			p.serverError(ctx, err)
			return
		}
		if removeMsg != "" {
			utils.SetFlash(ctx, removeMsg)
		}
	} else {
		if err := p.db.Model(&post).Association(association).Append(&member); err != nil {
			p.serverError(ctx, err)
			return
		}
		if addMsg != "" {
			utils.SetFlash(ctx, addMsg)
		}
	}

	ctx.Redirect(http.StatusFound, "/blogpost/"+post.Slug)
}

// ApproveComment is the moderation hook that makes a comment publicly
// visible. It lives outside the end-user surface and is admin only.
func (p *PostController) ApproveComment(ctx *gin.Context) {
	if !isAdmin(ctx) {
		// Hide the endpoint from non-admins entirely.
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return
	}

	var comment models.Comment
	if err := p.db.First(&comment, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "comment not found")
			return
		}
		p.serverError(ctx, err)
		return
	}

	if err := p.db.Model(&comment).Update("approved", true).Error; err != nil {
		p.serverError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"comment_id": comment.ID, "approved": true})
}

// publishedBySlug loads a published post by slug or renders 404. Drafts are
// invisible here for everyone, including their author.
func (p *PostController) publishedBySlug(ctx *gin.Context) (*models.Post, bool) {
	var post models.Post
	err := p.db.Where("slug = ? AND status = ?", ctx.Param("slug"), models.StatusPublished).
		Preload("User").Preload("MediaCategory").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return nil, false
		}
		p.serverError(ctx, err)
		return nil, false
	}
	return &post, true
}

// ownedBySlug loads a post by slug and current owner. The lookup folds the
// ownership check into the query so non-owners get the same 404 as a missing
// slug and can never probe for existence.
func (p *PostController) ownedBySlug(ctx *gin.Context) (*models.Post, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/login")
		return nil, false
	}

	var post models.Post
	err := p.db.Where("slug = ? AND user_id = ?", ctx.Param("slug"), userID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return nil, false
		}
		p.serverError(ctx, err)
		return nil, false
	}
	return &post, true
}

func (p *PostController) isMember(table string, postID, userID uint) bool {
	var n int64
	_ = p.db.Table(table).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error
	return n > 0
}

// validatePostForm sanitizes and validates the form, returning a populated
// post and a map of field errors. excludeID skips the given post when
// checking title uniqueness (the post being updated).
func (p *PostController) validatePostForm(ctx *gin.Context, form *postForm, excludeID uint) (*models.Post, map[string]string) {
	fieldErrors := map[string]string{}

	form.Title = utils.StripTags(strings.TrimSpace(form.Title))
	if form.Title == "" {
		fieldErrors["title"] = "Title is required."
	} else if len([]rune(form.Title)) > 200 {
		fieldErrors["title"] = "Title is too long (200 characters max)."
	}

	content := utils.Sanitize(form.Content)
	if strings.TrimSpace(content) == "" {
		fieldErrors["content"] = "Content is required."
	}
	excerpt := utils.Sanitize(form.Excerpt)

	status := models.StatusPublished
	switch form.Status {
	case "", strconv.Itoa(models.StatusPublished):
		status = models.StatusPublished
	case strconv.Itoa(models.StatusDraft):
		status = models.StatusDraft
	default:
		fieldErrors["status"] = "Invalid status."
	}

	year := 0
	if y, err := strconv.Atoi(strings.TrimSpace(form.ReleaseYear)); err != nil {
		fieldErrors["release_year"] = "Release year is required."
	} else if y < minReleaseYear || y > time.Now().Year() {
		fieldErrors["release_year"] = "Release year must be between 1800 and the current year."
	} else {
		year = y
	}

	var categoryID *uint
	if raw := strings.TrimSpace(form.MediaCategoryID); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			fieldErrors["media_category"] = "Invalid media category."
		} else {
			var category models.MediaCategory
			if err := p.db.First(&category, uint(id)).Error; err != nil {
				fieldErrors["media_category"] = "Invalid media category."
			} else {
				categoryID = &category.ID
			}
		}
	}

	// Title uniqueness is a write-time constraint; checking here lets the
	// form re-render with a field error instead of a generic failure.
	if fieldErrors["title"] == "" && form.Title != "" {
		var n int64
		q := p.db.Model(&models.Post{}).Where("title = ?", form.Title)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err == nil && n > 0 {
			fieldErrors["title"] = "A post with this title already exists."
		}
	}

	featured := ""
	if file, header, err := ctx.Request.FormFile("featured_image"); err == nil {
		url, err := utils.SaveImageUpload(file, header)
		if err != nil {
			fieldErrors["featured_image"] = err.Error()
		} else {
			featured = url
		}
	}

	post := &models.Post{
		Title:           form.Title,
		Content:         content,
		Excerpt:         excerpt,
		Status:          status,
		MediaCategoryID: categoryID,
		ReleaseYear:     year,
		MediaLink:       strings.TrimSpace(form.MediaLink),
		FeaturedImage:   featured,
	}
	return post, fieldErrors
}

func (p *PostController) renderPostForm(ctx *gin.Context, tmpl string, form postForm, fieldErrors map[string]string, slugValue string) {
	var categories []models.MediaCategory
	if err := p.db.Order("name").Find(&categories).Error; err != nil {
		p.serverError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, tmpl, gin.H{
		"Form":       form,
		"Errors":     fieldErrors,
		"Categories": categories,
		"Slug":       slugValue,
	})
}

func (p *PostController) serverError(ctx *gin.Context, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorf("%s %s failed: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}
	render(ctx, http.StatusInternalServerError, "500.html", nil)
}

// isDuplicateErr detects unique-constraint violations across MySQL and sqlite.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
