package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rongwang/deductible-server/internal/models"
)

func (h *Handler) ListReceipts(c *gin.Context) {
	donationID := optionalString(c.Query("donation_id"))
	receipts, err := h.svc.ListReceipts(c.Request.Context(), currentUser(c), donationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceiptListResponse{Status: "success", Receipts: receipts})
}

func (h *Handler) ConfirmReceipt(c *gin.Context) {
	var req models.ConfirmReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	receipt, err := h.svc.ConfirmReceipt(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ReceiptResponse{Status: "success", Receipt: receipt})
}

func (h *Handler) AttachOCR(c *gin.Context) {
	var req models.ReceiptOCRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	receipt, err := h.svc.AttachOCR(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ReceiptResponse{Status: "success", Receipt: receipt})
}
