package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/registry"
)

type CharityLookupResponse struct {
	Status       string                 `json:"status"`
	Organization *registry.Organization `json:"organization"`
}

type CharitySearchResponse struct {
	Status  string                  `json:"status"`
	Results []registry.SearchResult `json:"results"`
}

func (h *Handler) ListCharities(c *gin.Context) {
	charities, err := h.svc.ListCharities(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CharityListResponse{Status: "success", Charities: charities})
}

func (h *Handler) CreateCharity(c *gin.Context) {
	var req models.CreateCharityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	charity, err := h.svc.CreateCharity(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CharityResponse{Status: "success", Charity: charity})
}

func (h *Handler) UpdateCharity(c *gin.Context) {
	var req models.UpdateCharityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	charity, err := h.svc.UpdateCharity(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CharityResponse{Status: "success", Charity: charity})
}

func (h *Handler) DeleteCharity(c *gin.Context) {
	if err := h.svc.DeleteCharity(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Charity deleted"})
}

func (h *Handler) LookupCharity(c *gin.Context) {
	org, err := h.svc.LookupCharity(c.Request.Context(), c.Param("ein"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CharityLookupResponse{Status: "success", Organization: org})
}

func (h *Handler) SearchCharities(c *gin.Context) {
	results, err := h.svc.SearchCharities(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CharitySearchResponse{Status: "success", Results: results})
}
