package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"bienesraices/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templateConfirmation = "confirmacion"
	templateRecovery     = "recuperacion"
)

// Notifier renders account notifications and hands them to a Mailer.
type Notifier struct {
	mailer    Mailer
	from      string
	baseURL   string
	templates map[string]*template.Template
}

// NewNotifier parses the embedded templates. baseURL is the externally
// reachable site address used to build links.
func NewNotifier(mailer Mailer, from, baseURL string) (*Notifier, error) {
	templates := make(map[string]*template.Template)
	for _, name := range []string{templateConfirmation, templateRecovery} {
		tmpl, err := template.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		for _, block := range []string{"subject", "body"} {
			if tmpl.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s: missing %s block", name, block)
			}
		}
		templates[name] = tmpl
	}

	return &Notifier{
		mailer:    mailer,
		from:      from,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: templates,
	}, nil
}

type notificationData struct {
	Name string
	Link string
}

// SendConfirmation emails the account a link that confirms it.
func (n *Notifier) SendConfirmation(ctx context.Context, account *model.Account) error {
	return n.send(ctx, templateConfirmation, account, "/auth/confirmar/")
}

// SendRecovery emails the account a link to choose a new password.
func (n *Notifier) SendRecovery(ctx context.Context, account *model.Account) error {
	return n.send(ctx, templateRecovery, account, "/auth/actualizar-password/")
}

func (n *Notifier) send(ctx context.Context, name string, account *model.Account, path string) error {
	if !account.HasPendingToken() {
		return errors.New("notifier: account has no pending token")
	}

	data := notificationData{
		Name: account.Name,
		Link: n.baseURL + path + url.PathEscape(account.PendingToken()),
	}

	tmpl := n.templates[name]
	var subject, body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tmpl.ExecuteTemplate(&body, "body", data); err != nil {
		return fmt.Errorf("render %s body: %w", name, err)
	}

	msg := Message{
		From:    n.from,
		To:      account.Email,
		Subject: strings.TrimSpace(subject.String()),
		HTML:    body.String(),
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", name, err)
	}
	return nil
}
