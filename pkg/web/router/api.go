package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"gorm.io/gorm"

	"blog-platform/pkg/common/config"
	blogimpl "blog-platform/pkg/core/blog/repository/dao/impl"
	blogservice "blog-platform/pkg/core/blog/service"
	"blog-platform/pkg/core/moderation"
	userimpl "blog-platform/pkg/core/user/repository/dao/impl"
	userservice "blog-platform/pkg/core/user/service"
	"blog-platform/pkg/web/handler"
	"blog-platform/pkg/web/middleware"
)

// Option adjusts the services built by RegisterAPIs.
type Option func(*options)

type options struct {
	hashCost int
}

// WithHashCost sets the bcrypt cost of new passwords.
func WithHashCost(cost int) Option {
	return func(o *options) { o.hashCost = cost }
}

// RegisterAPIs wires repositories, services and handlers and registers all routes.
func RegisterAPIs(h *server.Hertz, cfg *config.Config, db *gorm.DB, gate *moderation.Gate, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// repositories
	userRepo := userimpl.NewGormUserRepository(db)
	categoryRepo := blogimpl.NewGormCategoryRepository(db)
	tagRepo := blogimpl.NewGormTagRepository(db)
	postRepo := blogimpl.NewGormPostRepository(db)
	commentRepo := blogimpl.NewGormCommentRepository(db)

	// services
	users := userservice.NewUserService(userRepo)
	if o.hashCost > 0 {
		users.WithHashCost(o.hashCost)
	}
	auth, err := middleware.NewAuth(cfg.Middleware.JWT, users.Resolve)
	if err != nil {
		return err
	}
	tokens, err := userservice.NewTokenService(users, auth, cfg.Middleware.JWT)
	if err != nil {
		return err
	}
	categories := blogservice.NewCategoryService(categoryRepo)
	tags := blogservice.NewTagService(tagRepo)
	posts := blogservice.NewPostService(postRepo, categoryRepo, tagRepo, users, gate)
	comments := blogservice.NewCommentService(commentRepo, postRepo)

	// handlers
	healthHandler := handler.NewHealthCheckHandler(db, gate)
	userHandler := handler.NewUserHandler(users, tokens)
	authorHandler := handler.NewAuthorHandler(users)
	categoryHandler := handler.NewCategoryHandler(categories)
	tagHandler := handler.NewTagHandler(tags)
	postHandler := handler.NewPostHandler(posts)
	commentHandler := handler.NewCommentHandler(comments)

	// global middleware, in execution order
	h.Use(
		middleware.RecoveryMiddleware(cfg),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.SecurityCheckMiddleware(cfg.Middleware.Security),
		middleware.TimeoutMiddleware(cfg.Middleware.Timeout.RequestTimeout),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
		middleware.RateLimitMiddleware(
			cfg.Middleware.RateLimit.Rate,
			cfg.Middleware.RateLimit.Interval,
		),
	)

	h.GET("/health", healthHandler.AdvancedHealthCheck)

	api := h.Group("/api", auth.Middleware())
	{
		api.POST("/token", userHandler.ObtainToken)
		api.POST("/token/refresh", userHandler.RefreshToken)

		userGroup := api.Group("/users")
		{
			userGroup.GET("", userHandler.List)
			userGroup.POST("", userHandler.Register)
			userGroup.GET("/me", userHandler.Me)
			userGroup.GET("/:id", userHandler.Get)
			userGroup.PUT("/:id", userHandler.Update)
			userGroup.PATCH("/:id", userHandler.Update)
			userGroup.DELETE("/:id", userHandler.Delete)
		}

		api.GET("/authors", authorHandler.List)
		api.GET("/authors/:id", authorHandler.Get)

		categoryGroup := api.Group("/categories")
		{
			categoryGroup.GET("", categoryHandler.List)
			categoryGroup.POST("", categoryHandler.Create)
			categoryGroup.GET("/:id", categoryHandler.Get)
			categoryGroup.PUT("/:id", categoryHandler.Update)
			categoryGroup.PATCH("/:id", categoryHandler.Update)
			categoryGroup.DELETE("/:id", categoryHandler.Delete)
		}

		tagGroup := api.Group("/tags")
		{
			tagGroup.GET("", tagHandler.List)
			tagGroup.POST("", tagHandler.Create)
			tagGroup.GET("/:id", tagHandler.Get)
			tagGroup.PUT("/:id", tagHandler.Update)
			tagGroup.PATCH("/:id", tagHandler.Update)
			tagGroup.DELETE("/:id", tagHandler.Delete)
		}

		postGroup := api.Group("/posts")
		{
			postGroup.GET("", postHandler.List)
			postGroup.POST("", postHandler.Create)
			postGroup.GET("/:id", postHandler.Get)
			postGroup.PUT("/:id", postHandler.Update)
			postGroup.PATCH("/:id", postHandler.Update)
			postGroup.DELETE("/:id", postHandler.Delete)
		}

		commentGroup := api.Group("/comments")
		{
			commentGroup.GET("", commentHandler.List)
			commentGroup.POST("", commentHandler.Create)
			commentGroup.GET("/:id", commentHandler.Get)
			commentGroup.PUT("/:id", commentHandler.Update)
			commentGroup.PATCH("/:id", commentHandler.Update)
			commentGroup.DELETE("/:id", commentHandler.Delete)
		}
	}
	return nil
}
