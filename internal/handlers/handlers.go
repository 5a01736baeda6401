package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"koomia/api/internal/apperr"
	"koomia/api/internal/middleware"
	"koomia/api/internal/response"
	"koomia/api/internal/security"
	"koomia/api/internal/service"
	"koomia/api/internal/validation"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps is everything the HTTP surface needs. Throttle guards the credential
// endpoints; Database and Cache feed the health check and may be nil.
type Deps struct {
	Log           zerolog.Logger
	Environment   string
	SecureCookies bool
	Tokens        *security.TokenService
	Accounts      service.AccountStore
	Auth          *service.AuthService
	Users         *service.AccountService
	Catalog       *service.CatalogService
	Commerce      *service.CommerceService
	Blogs         *service.BlogService
	Throttle      gin.HandlerFunc
	Database      Pinger
	Cache         Pinger
}

type HandlerSet struct {
	log           zerolog.Logger
	env           string
	secureCookies bool
	tokens        *security.TokenService
	accounts      service.AccountStore
	auth          *service.AuthService
	users         *service.AccountService
	catalog       *service.CatalogService
	commerce      *service.CommerceService
	blogs         *service.BlogService
	throttle      gin.HandlerFunc
	database      Pinger
	cache         Pinger
}

func NewHandlerSet(deps Deps) HandlerSet {
	throttle := deps.Throttle
	if throttle == nil {
		throttle = func(c *gin.Context) { c.Next() }
	}
	return HandlerSet{
		log:           deps.Log,
		env:           deps.Environment,
		secureCookies: deps.SecureCookies,
		tokens:        deps.Tokens,
		accounts:      deps.Accounts,
		auth:          deps.Auth,
		users:         deps.Users,
		catalog:       deps.Catalog,
		commerce:      deps.Commerce,
		blogs:         deps.Blogs,
		throttle:      throttle,
		database:      deps.Database,
		cache:         deps.Cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	authenticate := middleware.Authenticate(h.tokens, h.accounts)
	admin := middleware.RequireAdmin()
	verified := middleware.RequireVerified()

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", h.throttle, h.Signup)
		auth.POST("/login", h.throttle, h.Login)
		auth.POST("/refresh-token", h.Refresh)
		auth.POST("/forgot-password", h.throttle, h.ForgotPassword)
		auth.PUT("/reset-password/:token", h.ResetPassword)

		session := auth.Group("", authenticate)
		session.GET("/verify-email", middleware.WithPrincipal(h.RequestVerification))
		session.POST("/verify-email", middleware.WithPrincipal(h.VerifyEmail))
		session.POST("/logout", middleware.WithPrincipal(h.Logout))
	}

	me := v1.Group("/users/me", authenticate)
	{
		me.GET("", middleware.WithPrincipal(h.Me))
		me.PATCH("", middleware.WithPrincipal(h.UpdateMe))
		me.PUT("/password", middleware.WithPrincipal(h.ChangePassword))
		me.PUT("/avatar", middleware.WithPrincipal(h.SetAvatar))
		me.DELETE("/avatar", middleware.WithPrincipal(h.RemoveAvatar))

		shopper := me.Group("", verified)
		shopper.GET("/wishlist", middleware.WithPrincipal(h.Wishlist))
		shopper.GET("/addresses", middleware.WithPrincipal(h.Addresses))
		shopper.POST("/addresses", middleware.WithPrincipal(h.CreateAddress))
		shopper.PUT("/addresses/:addressId", middleware.WithPrincipal(h.UpdateAddress))
		shopper.DELETE("/addresses/:addressId", middleware.WithPrincipal(h.DeleteAddress))
		shopper.GET("/cart", middleware.WithPrincipal(h.Cart))
		shopper.PUT("/cart/items", middleware.WithPrincipal(h.SetCartItem))
		shopper.DELETE("/cart/items/:variantId", middleware.WithPrincipal(h.RemoveCartItem))
		shopper.DELETE("/cart", middleware.WithPrincipal(h.ClearCart))
		shopper.POST("/checkout", middleware.WithPrincipal(h.Checkout))
		shopper.GET("/orders", middleware.WithPrincipal(h.Orders))
		shopper.GET("/orders/:orderId", middleware.WithPrincipal(h.Order))
		shopper.GET("/orders/:orderId/verify", middleware.WithPrincipal(h.VerifyOrder))
	}

	adminGroup := v1.Group("/admin", authenticate, admin)
	{
		adminGroup.GET("/users", h.AdminListUsers)
		adminGroup.GET("/users/:userId", h.AdminGetUser)
		adminGroup.PUT("/users/:userId", middleware.WithPrincipal(h.AdminBlockUser))
		adminGroup.PATCH("/users/:userId", middleware.WithPrincipal(h.AdminUnblockUser))
		adminGroup.GET("/orders", h.AdminListOrders)
		adminGroup.PATCH("/orders/:orderId", h.AdminSetOrderStatus)
	}

	categories := v1.Group("/categories")
	{
		categories.GET("", h.CategoryTree)
		categories.GET("/:id", h.Category)

		manage := categories.Group("", authenticate, admin)
		manage.POST("", h.CreateCategory)
		manage.PUT("/:id", h.RenameCategory)
		manage.DELETE("/:id", h.DeleteCategory)
	}

	products := v1.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:productId", h.Product)
		products.GET("/:productId/reviews", h.Reviews)

		shopper := products.Group("", authenticate, verified)
		shopper.PUT("/:productId/wishlist", middleware.WithPrincipal(h.AddToWishlist))
		shopper.DELETE("/:productId/wishlist", middleware.WithPrincipal(h.RemoveFromWishlist))
		shopper.POST("/:productId/reviews", middleware.WithPrincipal(h.AddReview))

		manage := products.Group("", authenticate, admin)
		manage.POST("", h.CreateProduct)
		manage.PUT("/:productId", h.UpdateProduct)
		manage.DELETE("/:productId", h.DeleteProduct)
		manage.POST("/:productId/variants", h.AddVariant)
		manage.DELETE("/:productId/variants/:variantId", h.RemoveVariant)
		manage.POST("/:productId/images", h.AddImages)
	}

	blogs := v1.Group("/blogs")
	{
		blogs.GET("", h.ListBlogs)
		blogs.GET("/:blogId", h.Blog)

		reader := blogs.Group("", authenticate, verified)
		reader.PUT("/:blogId/like", middleware.WithPrincipal(h.LikeBlog))
		reader.PUT("/:blogId/dislike", middleware.WithPrincipal(h.DislikeBlog))

		manage := blogs.Group("", authenticate, admin)
		manage.POST("", middleware.WithPrincipal(h.CreateBlog))
		manage.PUT("/:blogId", h.UpdateBlog)
		manage.DELETE("/:blogId", h.DeleteBlog)
	}
}

func NotFound(c *gin.Context) {
	response.Error(c, apperr.Newf(apperr.NotFound, "Not found: %s", c.Request.URL.Path))
}

func NoMethod(c *gin.Context) {
	response.Error(c, apperr.Newf(apperr.MethodNotAllowed, "Method %s is not allowed on %s", c.Request.Method, c.Request.URL.Path))
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, validation.FromBinding(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.Error(c, validation.FromBinding(err))
		return false
	}
	return true
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q pageQuery) paging() service.Paging {
	return service.Paging{Page: q.Page, Limit: q.Limit}
}
