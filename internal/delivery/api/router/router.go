// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"loyalty/internal/delivery/api/middleware"
	"loyalty/internal/delivery/api/router/handler"
	"loyalty/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler      *handler.UserHandler
	CheckinHandler   *handler.CheckinHandler
	CampaignHandler  *handler.CampaignHandler
	MerchantHandler  *handler.MerchantHandler
	QRCodeHandler    *handler.QRCodeHandler
	SettingHandler   *handler.SettingHandler
	AnalyticsHandler *handler.AnalyticsHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler      *handler.UserHandler
	checkinHandler   *handler.CheckinHandler
	campaignHandler  *handler.CampaignHandler
	merchantHandler  *handler.MerchantHandler
	qrCodeHandler    *handler.QRCodeHandler
	settingHandler   *handler.SettingHandler
	analyticsHandler *handler.AnalyticsHandler
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:      params.UserHandler,
		checkinHandler:   params.CheckinHandler,
		campaignHandler:  params.CampaignHandler,
		merchantHandler:  params.MerchantHandler,
		qrCodeHandler:    params.QRCodeHandler,
		settingHandler:   params.SettingHandler,
		analyticsHandler: params.AnalyticsHandler,
		authMiddleware:   params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.userHandler.Register)
		authGroup.POST("/login", r.userHandler.Login)
	}

	// API v1 routes
	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate) // All API v1 routes require authentication

	apiV1.GET("/me", r.userHandler.Me)
	apiV1.PATCH("/me", r.userHandler.UpdateMe)
	apiV1.POST("/me/password", r.userHandler.ChangePassword)

	checkinsGroup := apiV1.Group("/checkins")
	{
		checkinsGroup.POST("", r.checkinHandler.Perform, r.authMiddleware.RequireRole(entity.RoleUser))
		checkinsGroup.GET("", r.checkinHandler.List)
		checkinsGroup.GET("/:id", r.checkinHandler.Get)
		checkinsGroup.PATCH("/:id", r.checkinHandler.Correct, r.authMiddleware.RequireRole(entity.RoleAdmin))
	}

	// Campaign reads are open to every role; writes need a merchant or admin
	campaignsGroup := apiV1.Group("/campaigns")
	manageCampaigns := r.authMiddleware.RequireRole(entity.RoleMerchant, entity.RoleAdmin)
	{
		campaignsGroup.GET("", r.campaignHandler.List)
		campaignsGroup.GET("/:id", r.campaignHandler.Get)
		campaignsGroup.POST("", r.campaignHandler.Create, manageCampaigns)
		campaignsGroup.PATCH("/:id", r.campaignHandler.Update, manageCampaigns)
		campaignsGroup.DELETE("/:id", r.campaignHandler.Delete, manageCampaigns)
		campaignsGroup.POST("/:id/status", r.campaignHandler.Transition, manageCampaigns)
		campaignsGroup.GET("/:id/analytics", r.campaignHandler.Analytics, manageCampaigns)
	}

	storesGroup := apiV1.Group("/stores")
	{
		storesGroup.GET("", r.merchantHandler.ListStores)
		storesGroup.POST("", r.merchantHandler.CreateStore, manageCampaigns)
		storesGroup.PATCH("/:id", r.merchantHandler.UpdateStore, manageCampaigns)
	}

	apiV1.GET("/merchants/:id", r.merchantHandler.GetMerchant)
	apiV1.PATCH("/merchants/:id", r.merchantHandler.UpdateMerchant, manageCampaigns)

	qrCodesGroup := apiV1.Group("/qrcodes")
	{
		qrCodesGroup.GET("/resolve", r.qrCodeHandler.Resolve)
		qrCodesGroup.GET("", r.qrCodeHandler.List, manageCampaigns)
		qrCodesGroup.POST("", r.qrCodeHandler.Create, manageCampaigns)
		qrCodesGroup.GET("/:id/image", r.qrCodeHandler.Image, manageCampaigns)
		qrCodesGroup.POST("/:id/deactivate", r.qrCodeHandler.Deactivate, manageCampaigns)
	}

	settingsGroup := apiV1.Group("/settings")
	settingsGroup.Use(manageCampaigns)
	{
		settingsGroup.GET("", r.settingHandler.List)
		settingsGroup.GET("/effective", r.settingHandler.Effective)
		settingsGroup.PUT("", r.settingHandler.Upsert)
		settingsGroup.DELETE("/:id", r.settingHandler.Delete)
	}

	// Admin routes
	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		adminGroup.GET("/users", r.userHandler.ListUsers)
		adminGroup.POST("/users/:id/status", r.userHandler.SetUserStatus)
		adminGroup.POST("/users/:id/password", r.userHandler.ResetPassword)
		adminGroup.GET("/merchants", r.merchantHandler.ListMerchants)
		adminGroup.DELETE("/merchants/:id", r.merchantHandler.DeleteMerchant)

		analyticsGroup := adminGroup.Group("/analytics")
		analyticsGroup.GET("/dashboard", r.analyticsHandler.Dashboard)
		analyticsGroup.GET("/trend", r.analyticsHandler.Trend)
		analyticsGroup.GET("/user-growth", r.analyticsHandler.UserGrowth)
		analyticsGroup.GET("/rankings", r.analyticsHandler.Rankings)
		analyticsGroup.GET("/distribution", r.analyticsHandler.Distribution)
		analyticsGroup.GET("/recent", r.analyticsHandler.Recent)
	}
}
