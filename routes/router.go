package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpress/config"
	"github.com/cppla/inkpress/controllers"
	"github.com/cppla/inkpress/middleware"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/utils"
)

// Deps are the collaborators the router wires into controllers.
type Deps struct {
	Config config.AppConfig
	// AccessLog receives gin access and panic logs. Nil disables them.
	AccessLog *zap.Logger
	Auth      *services.AuthService
	Blogs     *services.BlogService
	Social    *services.SocialService
	Admin     *services.AdminService
	// Images enables POST /api/uploads when set.
	Images controllers.ImageStore
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.RequestID())
	if d.AccessLog != nil {
		r.Use(utils.Ginzap(d.AccessLog, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(d.AccessLog, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(d.Auth)
	blogController := controllers.NewBlogController(d.Blogs)
	userController := controllers.NewUserController(d.Social)
	adminController := controllers.NewAdminController(d.Admin)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	authRequired := middleware.AuthRequired(d.Auth)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", limiter.Middleware(), authController.Register)
	authGroup.POST("/login", limiter.Middleware(), authController.Login)
	authGroup.GET("/captcha", limiter.Middleware(), authController.Captcha)
	authGroup.GET("/me", authRequired, authController.Me)
	authGroup.PATCH("/profile", authRequired, authController.UpdateProfile)
	authGroup.POST("/logout", authRequired, authController.Logout)

	blogs := api.Group("/blogs")
	blogs.GET("", blogController.List)
	blogs.GET("/search", blogController.Search)
	blogs.GET("/:id", blogController.Get)
	blogs.GET("/myblogs", authRequired, blogController.Mine)
	blogs.GET("/saved/list", authRequired, blogController.Saved)
	blogs.POST("", authRequired, blogController.Create)
	blogs.PUT("/:id", authRequired, blogController.Update)
	blogs.DELETE("/:id", authRequired, blogController.Delete)
	blogs.POST("/:id/like", authRequired, blogController.Like)
	blogs.POST("/:id/save", authRequired, blogController.Save)
	blogs.POST("/:id/report", authRequired, blogController.Report)
	blogs.POST("/:id/comments", authRequired, blogController.AddComment)
	blogs.PUT("/:id/comments/:commentId", authRequired, blogController.EditComment)
	blogs.DELETE("/:id/comments/:commentId", authRequired, blogController.DeleteComment)

	users := api.Group("/users")
	users.POST("/:id/follow", authRequired, userController.Follow)
	users.GET("/:id/followers", userController.Followers)
	users.GET("/:id/following", userController.Following)
	users.GET("/:id/profile", userController.Profile)

	admin := api.Group("/admin", authRequired, middleware.AdminRequired())
	admin.GET("/users", adminController.ListUsers)
	admin.PUT("/users/:id", adminController.SetRole)
	admin.DELETE("/users/:id", adminController.DeleteUser)
	admin.GET("/reported-blog", adminController.ReportedBlogs)
	admin.PUT("/blogs/:id", adminController.UpdateBlog)
	admin.DELETE("/blogs/:id", adminController.DeleteBlog)
	admin.GET("/stats", adminController.Stats)

	if d.Images != nil {
		uploadController := controllers.NewUploadController(d.Images)
		api.POST("/uploads", authRequired, limiter.Middleware(), uploadController.Upload)
	}

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
