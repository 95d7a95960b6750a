package notifier

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jsiptv/mobipay/internal/config"
)

// Mailer delivers notification emails over SMTP. Dispatch is fire-and-forget:
// delivery failures are logged and never surface to the calling workflow.
type Mailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

func NewMailer(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger,
	}
}

// Dispatch sends in the background after the caller's response decision is
// already final.
func (m *Mailer) Dispatch(recipient, subject, body string, attachments []string) {
	go func() {
		if err := m.Send(recipient, subject, body, attachments); err != nil {
			m.logger.Error("Notification delivery failed",
				zap.String("recipient", recipient),
				zap.String("subject", subject),
				zap.Error(err))
			return
		}
		m.logger.Info("Notification sent",
			zap.String("recipient", recipient),
			zap.String("subject", subject))
	}()
}

// Send delivers one message synchronously
func (m *Mailer) Send(recipient, subject, body string, attachments []string) error {
	if m.cfg.SMTPHost == "" {
		// No relay configured; log-only mode for development.
		m.logger.Info("Email send (no SMTP relay configured)",
			zap.String("recipient", recipient),
			zap.String("subject", subject),
			zap.Strings("attachments", attachments))
		return nil
	}

	message, err := m.buildMessage(recipient, subject, body, attachments)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	if m.cfg.StartTLS {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(message); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}

const mimeBoundary = "mobipay-mime-boundary"

func (m *Mailer) buildMessage(recipient, subject, body string, attachments []string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", recipient)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	for _, path := range attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}

		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		buf.WriteString("Content-Type: application/pdf\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filepath.Base(path))

		encoded := base64.StdEncoding.EncodeToString(data)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes(), nil
}
