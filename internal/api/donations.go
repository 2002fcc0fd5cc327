package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/deductible-server/internal/models"
)

type listDonationsQuery struct {
	Year           *int   `form:"year"`
	Since          string `form:"since"`
	IncludeDeleted bool   `form:"include_deleted"`
}

func (h *Handler) ListDonations(c *gin.Context) {
	var query listDonationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "Invalid query")
		return
	}

	filter := models.DonationFilter{
		Year:           query.Year,
		Since:          optionalString(query.Since),
		IncludeDeleted: query.IncludeDeleted,
	}
	donations, err := h.svc.ListDonations(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DonationListResponse{Status: "success", Donations: donations})
}

func (h *Handler) CreateDonation(c *gin.Context) {
	var req models.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	donation, err := h.svc.CreateDonation(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.DonationResponse{Status: "success", Donation: donation})
}

func (h *Handler) UpdateDonation(c *gin.Context) {
	var req models.UpdateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	donation, err := h.svc.UpdateDonation(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DonationResponse{Status: "success", Donation: donation})
}

func (h *Handler) DeleteDonation(c *gin.Context) {
	if err := h.svc.DeleteDonation(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Donation deleted"})
}

func (h *Handler) ImportDonations(c *gin.Context) {
	var req models.ImportDonationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.svc.ImportDonations(c.Request.Context(), currentUser(c), req.CSV)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DonationRevisions(c *gin.Context) {
	revisions, err := h.svc.DonationRevisions(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RevisionListResponse{Status: "success", Revisions: revisions})
}
