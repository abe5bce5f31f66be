package handlers

import (
	"net/http"

	"meetspace_backend/internal/services"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	*BaseHandler
	customerService services.CustomerService
	uploadService   services.UploadService
}

func NewCustomerHandler(base *BaseHandler, customerService services.CustomerService, uploadService services.UploadService) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler:     base,
		customerService: customerService,
		uploadService:   uploadService,
	}
}

// --- Customer (session) ---

func (h *CustomerHandler) GetMe(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateMe(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCustomerRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	customer, err := h.customerService.UpdateProfile(h.GetDB(c), customerID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UploadAvatar godoc
// @Summary Загрузить аватар
// @Description Изображение jpeg/png/webp/gif до 5MB. Предыдущий аватар удаляется.
// @Tags customers
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Изображение"
// @Success 201 {object} dto.UploadResponse
// @Failure 400 {object} apperrors.ErrorResponse "Недопустимый тип или размер файла"
// @Router /api/customers/me/avatar [post]
func (h *CustomerHandler) UploadAvatar(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("File is required: "+err.Error()))
		return
	}

	resp, err := h.uploadService.UploadAvatar(c.Request.Context(), h.GetDB(c), customerID, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CustomerHandler) RotateSecretKey(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.customerService.RotateSecretKey(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) GetClientKey(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.customerService.GetClientKey(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// --- Admin ---

func (h *CustomerHandler) List(c *gin.Context) {
	var filter dto.CustomerFilter
	if !h.BindAndValidate_Query(c, &filter) {
		return
	}

	resp, err := h.customerService.ListCustomers(h.GetDB(c), &filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.customerService.GetCustomer(h.GetDB(c), c.Param("customerId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	customer, err := h.customerService.CreateCustomer(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}
