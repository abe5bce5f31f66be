package handlers

import (
	"fmt"
	"net/http"

	"meetspace_backend/internal/models"
	"meetspace_backend/internal/services"
	"meetspace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InvoiceHandler struct {
	*BaseHandler
	invoiceService services.InvoiceService
}

func NewInvoiceHandler(base *BaseHandler, invoiceService services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler:    base,
		invoiceService: invoiceService,
	}
}

func (h *InvoiceHandler) ListMine(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)
	resp, err := h.invoiceService.ListCustomerInvoices(h.GetDB(c), customerID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) GetMine(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetCustomerInvoice(h.GetDB(c), customerID, c.Param("invoiceId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// ExportMine godoc
// @Summary Выгрузка счетов в Excel
// @Tags invoices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /api/invoices/me/export [get]
func (h *InvoiceHandler) ExportMine(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	data, filename, err := h.invoiceService.ExportCustomerInvoices(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// --- Admin ---

func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateInvoiceStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(h.GetDB(c), c.Param("invoiceId"), models.InvoiceStatus(req.Status))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !h.BindAndValidate_Query(c, &filter) {
		return
	}

	resp, err := h.invoiceService.ListInvoices(h.GetDB(c), &filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
