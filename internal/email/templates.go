package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

var defaultTemplates = map[string]string{
	TemplateRoomInvitation: `<p>Hello,</p>
<p>{{.Organizer}} invited you to <b>{{.Title}}</b>.</p>
<p>Starts: {{.BeginTime}}<br>Ends: {{.EndTime}}</p>
<p><a href="{{.JoinLink}}">Join the meeting</a>{{if .InviteCode}} (invite code {{.InviteCode}}){{end}}</p>`,

	TemplateInvoiceIssued: `<p>Hello {{.Name}},</p>
<p>Invoice <b>{{.InvoiceNumber}}</b> for {{.Amount}} {{.Currency}} was issued.</p>
<p>Due date: {{.DueDate}}</p>{{if .Description}}
<p>{{.Description}}</p>{{end}}`,

	TemplateSubscriptionRenewed: `<p>Hello {{.Name}},</p>
<p>Your <b>{{.Plan}}</b> subscription was renewed until {{.EndDate}}.</p>`,

	TemplateSubscriptionExpired: `<p>Hello {{.Name}},</p>
<p>Your <b>{{.Plan}}</b> subscription expired on {{.EndDate}}. Rooms can no longer be scheduled until it is renewed.</p>`,
}

// TemplateManager реализует TemplateRenderer для управления шаблонами email
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	for name, body := range defaultTemplates {
		if err := tm.AddTemplate(name, body); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// AddTemplate добавляет (или заменяет) шаблон
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Option("missingkey=zero").Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}
