package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetspace_backend/internal/email"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	invoiceNumberAttempts = 3
	defaultInvoiceDueDays = 14
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, db *gorm.DB, req *dto.CreateInvoiceRequest) (*models.Invoice, error)
	// CreateRenewalInvoice выставляет счет в статусе pending за новый период подписки.
	CreateRenewalInvoice(ctx context.Context, db *gorm.DB, sub *models.Subscription) (*models.Invoice, error)
	GetCustomerInvoice(db *gorm.DB, customerID, invoiceID string) (*models.Invoice, error)
	ListCustomerInvoices(db *gorm.DB, customerID string, page, pageSize int) (*dto.PaginatedResponse, error)
	ListInvoices(db *gorm.DB, filter *dto.InvoiceFilter) (*dto.PaginatedResponse, error)
	UpdateStatus(db *gorm.DB, invoiceID string, status models.InvoiceStatus) (*models.Invoice, error)
	// ExportCustomerInvoices возвращает xlsx со всеми счетами клиента и имя файла.
	ExportCustomerInvoices(db *gorm.DB, customerID string) ([]byte, string, error)
}

type invoiceService struct {
	invoiceRepo      repositories.InvoiceRepository
	customerRepo     repositories.CustomerRepository
	subscriptionRepo repositories.SubscriptionRepository
	emailProvider    email.Provider

	now   func() time.Time
	async func(fn func())
}

func NewInvoiceService(
	invoiceRepo repositories.InvoiceRepository,
	customerRepo repositories.CustomerRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	emailProvider email.Provider,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:      invoiceRepo,
		customerRepo:     customerRepo,
		subscriptionRepo: subscriptionRepo,
		emailProvider:    emailProvider,
		now:              utcNow,
		async:            runAsync,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, db *gorm.DB, req *dto.CreateInvoiceRequest) (*models.Invoice, error) {
	customer, err := s.customerRepo.FindByID(db, req.CustomerID)
	if err != nil {
		return nil, handleInvoiceError(err)
	}

	if req.SubscriptionID != nil {
		sub, err := s.subscriptionRepo.FindByID(db, *req.SubscriptionID)
		if err != nil {
			return nil, handleInvoiceError(err)
		}
		if sub.CustomerID != customer.ID {
			return nil, apperrors.ErrInvalidOperation("invoice", "Subscription belongs to another customer")
		}
	}

	now := s.now()
	status := models.InvoiceStatusPending
	if req.Status != "" {
		status = models.InvoiceStatus(req.Status)
	}
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidInvoiceStatus
	}

	dueDate := now.AddDate(0, 0, defaultInvoiceDueDays)
	if req.DueDate != nil {
		dueDate = req.DueDate.UTC()
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	invoice := &models.Invoice{
		CustomerID:     customer.ID,
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Currency:       currency,
		Status:         status,
		Description:    req.Description,
		DueDate:        dueDate,
	}
	if status == models.InvoiceStatusPaid {
		invoice.PaidDate = &now
	}

	if err := s.create(db, invoice, now); err != nil {
		return nil, err
	}

	s.sendIssued(ctx, customer, invoice)
	return invoice, nil
}

func (s *invoiceService) CreateRenewalInvoice(ctx context.Context, db *gorm.DB, sub *models.Subscription) (*models.Invoice, error) {
	if sub.Plan == nil {
		return nil, apperrors.InternalError(errors.New("subscription plan is not loaded"))
	}

	now := s.now()
	subscriptionID := sub.ID
	invoice := &models.Invoice{
		CustomerID:     sub.CustomerID,
		SubscriptionID: &subscriptionID,
		Amount:         sub.Plan.Price,
		Currency:       sub.Plan.Currency,
		Status:         models.InvoiceStatusPending,
		Description: fmt.Sprintf("%s subscription %s - %s", sub.Plan.Name,
			sub.StartDate.Format("2006-01-02"), sub.EndDate.Format("2006-01-02")),
		DueDate: now.AddDate(0, 0, defaultInvoiceDueDays),
	}
	if err := s.create(db, invoice, now); err != nil {
		return nil, err
	}

	if sub.Customer != nil {
		s.sendIssued(ctx, sub.Customer, invoice)
	}
	return invoice, nil
}

func (s *invoiceService) GetCustomerInvoice(db *gorm.DB, customerID, invoiceID string) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDAndCustomer(db, invoiceID, customerID)
	if err != nil {
		return nil, handleInvoiceError(err)
	}
	return invoice, nil
}

func (s *invoiceService) ListCustomerInvoices(db *gorm.DB, customerID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	invoices, total, err := s.invoiceRepo.List(db, customerID, "", page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(invoices, total, page, pageSize), nil
}

func (s *invoiceService) ListInvoices(db *gorm.DB, filter *dto.InvoiceFilter) (*dto.PaginatedResponse, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	invoices, total, err := s.invoiceRepo.List(db, filter.CustomerID, filter.Status, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(invoices, total, page, pageSize), nil
}

func (s *invoiceService) UpdateStatus(db *gorm.DB, invoiceID string, status models.InvoiceStatus) (*models.Invoice, error) {
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidInvoiceStatus
	}

	invoice, err := s.invoiceRepo.FindByID(db, invoiceID)
	if err != nil {
		return nil, handleInvoiceError(err)
	}
	if !CanTransitionInvoice(invoice.Status, status) {
		return nil, apperrors.ErrInvalidInvoiceStatus.WithDetails(map[string]string{
			"from": string(invoice.Status),
			"to":   string(status),
		})
	}

	paidDate := PaidDateFor(invoice, status, s.now())
	if err := s.invoiceRepo.UpdateStatus(db, invoice.ID, status, paidDate); err != nil {
		return nil, handleInvoiceError(err)
	}
	invoice.Status = status
	invoice.PaidDate = paidDate
	return invoice, nil
}

func (s *invoiceService) ExportCustomerInvoices(db *gorm.DB, customerID string) ([]byte, string, error) {
	invoices, err := s.invoiceRepo.AllByCustomer(db, customerID)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}

	data, err := BuildInvoiceWorkbook(invoices)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}
	fileName := fmt.Sprintf("invoices_%s.xlsx", s.now().Format("20060102_150405"))
	return data, fileName, nil
}

// create подбирает номер счета; при коллизии уникального номера пробует снова.
func (s *invoiceService) create(db *gorm.DB, invoice *models.Invoice, now time.Time) error {
	var err error
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		invoice.InvoiceNumber = NewInvoiceNumber(now)
		err = s.invoiceRepo.Create(db, invoice)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrInvoiceNumberTaken) {
			return handleInvoiceError(err)
		}
	}
	return apperrors.InternalError(fmt.Errorf("allocate invoice number: %w", err))
}

func (s *invoiceService) sendIssued(ctx context.Context, customer *models.Customer, invoice *models.Invoice) {
	if s.emailProvider == nil {
		return
	}
	to := []string{customer.Email}
	subject := "Invoice " + invoice.InvoiceNumber
	data := email.TemplateData{
		"Name":          customer.Name,
		"InvoiceNumber": invoice.InvoiceNumber,
		"Amount":        fmt.Sprintf("%.2f", invoice.Amount),
		"Currency":      invoice.Currency,
		"DueDate":       invoice.DueDate.Format("2006-01-02"),
		"Description":   invoice.Description,
	}
	sendCtx := context.WithoutCancel(ctx)

	s.async(func() {
		if err := s.emailProvider.SendTemplate(sendCtx, to, subject, email.TemplateInvoiceIssued, data); err != nil {
			logger.CtxWithError(sendCtx, "failed to send invoice email", err, "invoice", invoice.InvoiceNumber)
		}
	})
}

// NewInvoiceNumber возвращает номер вида INV-YYYYMM-XXXXXXXX.
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("200601"), suffix)
}

// CanTransitionInvoice: оплаченный счет можно только вернуть, возвращенный и
// отмененный счета не меняются.
func CanTransitionInvoice(from, to models.InvoiceStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.InvoiceStatusPaid:
		return to == models.InvoiceStatusRefunded
	case models.InvoiceStatusRefunded, models.InvoiceStatusCancelled:
		return false
	}
	return true
}

// PaidDateFor: paid ставит текущую дату, refunded сохраняет дату оплаты,
// остальные статусы ее очищают.
func PaidDateFor(invoice *models.Invoice, status models.InvoiceStatus, now time.Time) *time.Time {
	switch status {
	case models.InvoiceStatusPaid:
		if invoice.Status == models.InvoiceStatusPaid && invoice.PaidDate != nil {
			return invoice.PaidDate
		}
		return &now
	case models.InvoiceStatusRefunded:
		return invoice.PaidDate
	}
	return nil
}

// BuildInvoiceWorkbook строит xlsx с одной строкой на счет.
func BuildInvoiceWorkbook(invoices []models.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Invoices"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Number", "Status", "Amount", "Currency", "Due date", "Paid date", "Description", "Created"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, inv := range invoices {
		paid := ""
		if inv.PaidDate != nil {
			paid = inv.PaidDate.Format("2006-01-02")
		}
		row := []interface{}{
			inv.InvoiceNumber,
			string(inv.Status),
			inv.Amount,
			inv.Currency,
			inv.DueDate.Format("2006-01-02"),
			paid,
			inv.Description,
			inv.CreatedAt.Format("2006-01-02"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "G", "G", 40); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func handleInvoiceError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvoiceNotFound):
		return apperrors.ErrInvoiceNotFound.WithError(err)
	case errors.Is(err, repositories.ErrCustomerNotFound):
		return apperrors.ErrCustomerNotFound.WithError(err)
	case errors.Is(err, repositories.ErrSubscriptionNotFound):
		return apperrors.ErrSubscriptionNotFound.WithError(err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.InternalError(err)
}
