package services

import (
	"context"
	"testing"
	"time"

	"expedientes_app_go/config"
	"expedientes_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail_TestMode(t *testing.T) {
	cfg := &config.Config{EmailTestMode: true}
	email := &Email{To: []string{"test@example.com"}, Subject: "Test", HTMLBody: "Body"}

	assert.NoError(t, SendEmail(context.Background(), cfg, email))
}

func TestSendEmail_NoApiKey(t *testing.T) {
	cfg := &config.Config{EmailTestMode: false, ResendAPIKey: ""}
	email := &Email{To: []string{"test@example.com"}, Subject: "Test", HTMLBody: "Body"}

	err := SendEmail(context.Background(), cfg, email)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RESEND_API_KEY not configured")
}

func TestSendEmail_NoBody(t *testing.T) {
	cfg := &config.Config{EmailTestMode: false, ResendAPIKey: "key"}
	email := &Email{To: []string{"test@example.com"}, Subject: "Test"}

	err := SendEmail(context.Background(), cfg, email)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email must have either HTMLBody or TextBody")
}

func TestBuildSyncFailureEmail(t *testing.T) {
	run := &models.SyncRun{
		StartedAt:   time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC),
		Status:      models.SyncStatusFailed,
		FailureKind: "portal_layout",
		Message:     "La estructura del portal cambió <b>otra vez</b>",
		SnapshotURL:   "https://snapshots.example.com/snapshots/x.html",
		ScreenshotURL: "https://snapshots.example.com/snapshots/x.png",
	}

	email, err := BuildSyncFailureEmail("ops@example.com", run, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, email.To)
	assert.Equal(t, "Sincronización fallida", email.Subject)
	assert.Contains(t, email.TextBody, "10/05/2024 12:30")
	assert.Contains(t, email.TextBody, "portal_layout")
	assert.Contains(t, email.TextBody, "https://snapshots.example.com/snapshots/x.html")
	assert.Contains(t, email.TextBody, "Pantalla: https://snapshots.example.com/snapshots/x.png")
	assert.Contains(t, email.HTMLBody, "&lt;b&gt;otra vez&lt;/b&gt;", "message is escaped in HTML")
}

func TestEmailNotifierWithoutRecipient(t *testing.T) {
	// Test mode off and no API key: sending would fail, so a nil error proves nothing was sent
	n := NewEmailNotifier(&config.Config{SyncTimezone: "America/Argentina/Buenos_Aires"})
	assert.NoError(t, n.SyncFailed(context.Background(), &models.SyncRun{}))
}

func TestEmailNotifierTestMode(t *testing.T) {
	n := NewEmailNotifier(&config.Config{AlertEmail: "ops@example.com", EmailTestMode: true, SyncTimezone: "nowhere/invalid"})
	assert.NoError(t, n.SyncFailed(context.Background(), &models.SyncRun{StartedAt: time.Now(), FailureKind: "authentication"}))
}

func TestTruncate(t *testing.T) {
	s := "Hello World"
	assert.Equal(t, "Hello", truncate(s, 5))
	assert.Equal(t, "Hello World", truncate(s, 20))
}
