package email

import (
	"context"
	"sync"
)

// Provider определяет интерфейс для отправки email
type Provider interface {
	Send(ctx context.Context, email *Email) error

	// SendTemplate рендерит шаблон в HTML и отправляет письмо
	SendTemplate(ctx context.Context, to []string, subject, templateName string, data TemplateData) error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
}

// MockProvider запоминает письма вместо отправки. Используется в тестах и
// когда отправка писем выключена в конфигурации.
type MockProvider struct {
	mu   sync.Mutex
	Sent []Email
	Err  error

	renderer TemplateRenderer
}

func NewMockProvider(renderer TemplateRenderer) *MockProvider {
	return &MockProvider{renderer: renderer}
}

func (m *MockProvider) Send(_ context.Context, email *Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, *email)
	return nil
}

func (m *MockProvider) SendTemplate(ctx context.Context, to []string, subject, templateName string, data TemplateData) error {
	body := ""
	if m.renderer != nil {
		html, err := m.renderer.Render(templateName, data)
		if err != nil {
			return err
		}
		body = html
	}
	return m.Send(ctx, &Email{To: to, Subject: subject, HTMLBody: body})
}

// Messages returns a snapshot of sent messages.
func (m *MockProvider) Messages() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.Sent))
	copy(out, m.Sent)
	return out
}
