package email

// Attachment представляет вложение в email
type Attachment struct {
	Name        string
	Content     []byte
	ContentType string
}

// Email представляет структуру email сообщения
type Email struct {
	To          []string
	Cc          []string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []Attachment
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}

// Имена встроенных шаблонов
const (
	TemplateRoomInvitation      = "room_invitation"
	TemplateInvoiceIssued       = "invoice_issued"
	TemplateSubscriptionRenewed = "subscription_renewed"
	TemplateSubscriptionExpired = "subscription_expired"
)
