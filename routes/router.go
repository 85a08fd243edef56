package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nederlearn/cultureclub/config"
	"github.com/nederlearn/cultureclub/controllers"
	"github.com/nederlearn/cultureclub/middleware"
	"github.com/nederlearn/cultureclub/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with a file-based zap access log
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Resolve the session cookie on every request; handlers decide what
	// anonymous visitors may see.
	r.Use(middleware.CurrentUser(db))
	// Record page views after each request
	r.Use(middleware.PageViewRecorder(db))

	r.LoadHTMLGlob(cfg.TemplatesGlob)
	r.Static("/static", cfg.StaticDir)

	// Unsupported verbs on routed paths must yield 405, not a silent 404.
	r.HandleMethodNotAllowed = true
	r.NoMethod(controllers.MethodNotAllowed)
	r.NoRoute(controllers.NotFound)

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	profileController := controllers.NewProfileController(db)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.GET("/", postController.Home)
	r.GET("/about-us", controllers.About)

	authGroup := r.Group("")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/register", authController.ShowRegister)
	authGroup.POST("/register", authController.Register)
	authGroup.GET("/login", authController.ShowLogin)
	authGroup.POST("/login", authController.Login)
	r.POST("/logout", middleware.LoginRequired(), authController.Logout)

	// Public post surface
	r.GET("/blogpost/:slug", postController.Detail)
	r.POST("/blogpost/:slug", middleware.LoginRequired(), postController.SubmitComment)
	r.GET("/user/:username", profileController.OtherProfile)
	r.GET("/saved-for-later", postController.Bookmarked)

	// Session-only surface
	protected := r.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/blogpost/create", postController.ShowCreate)
	protected.POST("/blogpost/create", postController.Create)
	protected.GET("/blogpost/update/:slug", postController.ShowUpdate)
	protected.POST("/blogpost/update/:slug", postController.Update)
	protected.GET("/blogpost/delete/:slug", postController.ShowDelete)
	protected.POST("/blogpost/delete/:slug", postController.Delete)
	protected.POST("/blogpost/like/:slug", postController.ToggleLike)
	protected.POST("/bookmark-unbookmark/:slug", postController.ToggleBookmark)
	protected.GET("/my-posts", postController.MyPosts)
	protected.GET("/profile", profileController.OwnProfile)
	protected.GET("/profile/edit", profileController.ShowEdit)
	protected.POST("/profile/edit", profileController.Edit)
	protected.GET("/account/manage", authController.ShowManageAccount)
	protected.POST("/account/delete", authController.DeleteAccount)

	// Moderation tooling, outside the end-user surface
	protected.POST("/moderation/comments/:id/approve", postController.ApproveComment)

	return r
}
