package handlers

import (
	"net/http"

	_ "marketplace/docs"
	"marketplace/internal/logger"
	"marketplace/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	defaultSessionName  = "marketplace_session"
	defaultMaxBodyBytes = 16 << 20 // 16 MB
	imagesPath          = "/static/images"
)

// Config holds HTTP-layer settings.
type Config struct {
	SessionName   string
	SessionSecret string
	SecureCookie  bool
	// Images is served read-only under /static/images when set.
	Images       afero.Fs
	MaxBodyBytes int64
	// TrustedProxies may set X-Forwarded-For; nil trusts no one, so the
	// per-IP limiter keys on the TCP peer.
	TrustedProxies []string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      Config
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	if cfg.SessionName == "" {
		cfg.SessionName = defaultSessionName
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{services: services, log: log, cfg: cfg}
}

// @title        Marketplace API
// @version      1.0
// @description  Listings, profiles and session auth for a small marketplace.
// @BasePath     /

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = h.cfg.MaxBodyBytes
	if err := router.SetTrustedProxies(h.cfg.TrustedProxies); err != nil {
		if h.log != nil {
			h.log.Errorw("trusted_proxies_invalid", "proxies", h.cfg.TrustedProxies, "err", err)
		}
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery(), h.requestID, h.accessLog, h.limitBody)

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(h.cfg.SessionName, store))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/about", h.about)

	if h.cfg.Images != nil {
		router.StaticFS(imagesPath, filesOnly{afero.NewHttpFs(h.cfg.Images).Dir("/")})
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Home feed pushed over a WebSocket on the same port.
	router.GET("/ws/listings", h.wsListings)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.guestOnly, h.register)
		auth.POST("/login", h.guestOnly, h.login)
		auth.POST("/logout", h.logout)

		auth.POST("/reset-password", h.guestOnly, h.rateLimit, h.requestReset)
		auth.GET("/reset-password/:token", h.guestOnly, h.checkResetToken)
		auth.POST("/reset-password/:token", h.guestOnly, h.resetPassword)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/listings", h.feed)
		api.GET("/listings/:id", h.getListing)
		api.GET("/users/:username/listings", h.sellerFeed)
	}

	protected := api.Group("", h.authRequired)
	{
		protected.GET("/profile", h.getProfile)
		protected.POST("/profile", h.updateProfile)

		protected.POST("/listings", h.createListing)
		protected.PUT("/listings/:id", h.updateListing)
		protected.DELETE("/listings/:id", h.deleteListing)
	}
}
