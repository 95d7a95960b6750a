package notifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jsiptv/mobipay/internal/config"
)

func TestSend_LogOnlyWithoutRelay(t *testing.T) {
	mailer := NewMailer(config.EmailConfig{From: "noreply@example.com"}, zap.NewNop())
	err := mailer.Send("alice@example.com", "Payment Receipt", "Tx txn-1 successful", nil)
	assert.NoError(t, err)
}

func TestBuildMessage_PlainText(t *testing.T) {
	mailer := NewMailer(config.EmailConfig{From: "noreply@example.com"}, zap.NewNop())

	message, err := mailer.buildMessage("alice@example.com", "Your trial credentials", "Username: u\nPassword: p", nil)
	require.NoError(t, err)

	text := string(message)
	assert.Contains(t, text, "From: noreply@example.com\r\n")
	assert.Contains(t, text, "To: alice@example.com\r\n")
	assert.Contains(t, text, "Subject: Your trial credentials\r\n")
	assert.Contains(t, text, "Username: u\nPassword: p")
	assert.True(t, strings.HasSuffix(text, "--"+mimeBoundary+"--\r\n"))
}

func TestBuildMessage_AttachmentEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.pdf")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 200)), 0o644))

	mailer := NewMailer(config.EmailConfig{From: "noreply@example.com"}, zap.NewNop())
	message, err := mailer.buildMessage("alice@example.com", "Payment Receipt", "body", []string{path})
	require.NoError(t, err)

	text := string(message)
	assert.Contains(t, text, `Content-Disposition: attachment; filename="receipt.pdf"`)
	assert.Contains(t, text, "Content-Transfer-Encoding: base64\r\n")

	// Encoded lines are wrapped at 76 characters.
	inAttachment := false
	for _, line := range strings.Split(text, "\r\n") {
		if strings.HasPrefix(line, "Content-Disposition") {
			inAttachment = true
			continue
		}
		if inAttachment && strings.HasPrefix(line, "--") {
			break
		}
		if inAttachment {
			assert.LessOrEqual(t, len(line), 76)
		}
	}
}

func TestBuildMessage_MissingAttachment(t *testing.T) {
	mailer := NewMailer(config.EmailConfig{From: "noreply@example.com"}, zap.NewNop())
	_, err := mailer.buildMessage("alice@example.com", "Payment Receipt", "body", []string{"/nonexistent/receipt.pdf"})
	assert.Error(t, err)
}
