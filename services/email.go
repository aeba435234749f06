package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	texttemplate "text/template"
	"time"

	"expedientes_app_go/config"
	"expedientes_app_go/models"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(ctx context.Context, cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		log.Printf("[EMAIL] Email logged (test mode - not actually sent)")
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	sent, err := client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("[EMAIL] Email sent via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (test mode - not sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("\n--- HTML BODY (first 500 chars) ---\n%s...", truncate(email.HTMLBody, 500))
	log.Printf("%s\n", separator)
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SyncFailureEmailData feeds the sync failure templates
type SyncFailureEmailData struct {
	StartedAt   string
	FailureKind string
	Message     string
	SnapshotURL   string
	ScreenshotURL string
}

var syncFailureHTML = template.Must(template.New("sync_failure.html").Parse(`<html><body>
<h2>Sincronización fallida</h2>
<p>La sincronización iniciada el {{.StartedAt}} no pudo completarse.</p>
<p><strong>Causa:</strong> {{.FailureKind}}</p>
<p>{{.Message}}</p>
{{if .SnapshotURL}}<p><a href="{{.SnapshotURL}}">Ver captura de la página</a></p>{{end}}
{{if .ScreenshotURL}}<p><a href="{{.ScreenshotURL}}">Ver imagen de la pantalla</a></p>{{end}}
</body></html>`))

var syncFailureText = texttemplate.Must(texttemplate.New("sync_failure.txt").Parse(`Sincronización fallida

La sincronización iniciada el {{.StartedAt}} no pudo completarse.
Causa: {{.FailureKind}}
{{.Message}}
{{if .SnapshotURL}}Captura: {{.SnapshotURL}}
{{end}}{{if .ScreenshotURL}}Pantalla: {{.ScreenshotURL}}
{{end}}`))

// BuildSyncFailureEmail renders the alert for a failed sync run
func BuildSyncFailureEmail(to string, run *models.SyncRun, loc *time.Location) (*Email, error) {
	if loc == nil {
		loc = time.UTC
	}
	data := SyncFailureEmailData{
		StartedAt:   run.StartedAt.In(loc).Format("02/01/2006 15:04"),
		FailureKind: run.FailureKind,
		Message:     run.Message,
		SnapshotURL:   run.SnapshotURL,
		ScreenshotURL: run.ScreenshotURL,
	}

	var htmlBody, textBody bytes.Buffer
	if err := syncFailureHTML.Execute(&htmlBody, data); err != nil {
		return nil, fmt.Errorf("failed to render sync failure email: %w", err)
	}
	if err := syncFailureText.Execute(&textBody, data); err != nil {
		return nil, fmt.Errorf("failed to render sync failure email: %w", err)
	}

	return &Email{
		To:       []string{to},
		Subject:  "Sincronización fallida",
		HTMLBody: htmlBody.String(),
		TextBody: textBody.String(),
	}, nil
}

// SyncNotifier is told about sync runs that did not complete
type SyncNotifier interface {
	SyncFailed(ctx context.Context, run *models.SyncRun) error
}

// EmailNotifier alerts the operator by email
type EmailNotifier struct {
	cfg *config.Config
	loc *time.Location
}

// NewEmailNotifier creates a notifier that formats dates in the sync timezone
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	loc, err := time.LoadLocation(cfg.SyncTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &EmailNotifier{cfg: cfg, loc: loc}
}

// SyncFailed emails the failure. Without ALERT_EMAIL it does nothing.
func (n *EmailNotifier) SyncFailed(ctx context.Context, run *models.SyncRun) error {
	if n.cfg.AlertEmail == "" {
		return nil
	}
	email, err := BuildSyncFailureEmail(n.cfg.AlertEmail, run, n.loc)
	if err != nil {
		return err
	}
	return SendEmail(ctx, n.cfg, email)
}
