package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/service"
)

// Handler adapts HTTP requests to the service.
type Handler struct {
	svc      service.Service
	log      zerolog.Logger
	devLogin bool
}

// NewHandler creates a Handler. devLogin enables the password-less login
// route and must stay off outside development.
func NewHandler(svc service.Service, log zerolog.Logger, devLogin bool) *Handler {
	return &Handler{
		svc:      svc,
		log:      log.With().Str("component", "api").Logger(),
		devLogin: devLogin,
	}
}

// SetupRoutes registers every route on router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(RequestLogger(h.log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.devLogin {
		router.POST("/auth/dev/login", h.DevLogin)
	}

	api := router.Group("/api")
	api.Use(AuthMiddleware())
	{
		api.GET("/donations", h.ListDonations)
		api.POST("/donations", h.CreateDonation)
		api.POST("/donations/import", h.ImportDonations)
		api.PUT("/donations/:id", h.UpdateDonation)
		api.DELETE("/donations/:id", h.DeleteDonation)
		api.GET("/donations/:id/revisions", h.DonationRevisions)

		api.GET("/charities", h.ListCharities)
		api.POST("/charities", h.CreateCharity)
		api.GET("/charities/search", h.SearchCharities)
		api.GET("/charities/lookup/:ein", h.LookupCharity)
		api.PUT("/charities/:id", h.UpdateCharity)
		api.DELETE("/charities/:id", h.DeleteCharity)

		api.GET("/receipts", h.ListReceipts)
		api.POST("/receipts/confirm", h.ConfirmReceipt)
		api.POST("/receipts/:id/ocr", h.AttachOCR)

		api.GET("/me", h.GetProfile)
		api.PUT("/me", h.UpdateProfile)

		api.GET("/audit", h.ListAuditLogs)
		api.GET("/reports/years", h.ReportYears)

		api.POST("/valuations/suggest", h.SuggestValuations)
		api.POST("/valuations/seed", h.SeedValuations)
	}
}

func (h *Handler) DevLogin(c *gin.Context) {
	var req models.DevLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.svc.DevLogin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.svc.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

type auditQuery struct {
	Since string `form:"since"`
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	var query auditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "Invalid query")
		return
	}

	logs, err := h.svc.ListAuditLogs(c.Request.Context(), currentUser(c), optionalString(query.Since))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AuditLogResponse{Status: "success", Logs: logs})
}

func (h *Handler) ReportYears(c *gin.Context) {
	years, err := h.svc.ReportYears(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.YearsResponse{Status: "success", Years: years})
}

func (h *Handler) SuggestValuations(c *gin.Context) {
	var req models.SuggestValuationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	valuations, err := h.svc.SuggestValuations(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ValuationListResponse{Status: "success", Valuations: valuations})
}

func (h *Handler) SeedValuations(c *gin.Context) {
	inserted, err := h.svc.SeedValuations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SeedResponse{Status: "success", Inserted: inserted})
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
