// Package notify sends best-effort failure notifications over SMTP.
// A notification failure is never allowed to mask the sync failure
// that triggered it.
package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/logger"
	"github.com/spqsync/spqsync/internal/models"

	"github.com/wneessen/go-mail"
)

type Dispatcher struct {
	Config *models.NotificationConfig

	// send is swappable for tests.
	send func(ctx context.Context, cfg *models.NotificationConfig, subject, htmlBody string) error
}

func New(cfg *models.NotificationConfig) *Dispatcher {
	return &Dispatcher{Config: cfg, send: smtpSend}
}

// Enabled requires both a server and at least one recipient; either
// missing makes the dispatcher a no-op.
func (d *Dispatcher) Enabled() bool {
	return d.Config != nil && d.Config.Server != "" && len(d.Config.Addresses) > 0
}

// NotifyFailure formats and sends an error document for cause. The
// returned error is informational only: callers log it and keep the
// original failure.
func (d *Dispatcher) NotifyFailure(ctx context.Context, repositoryRoot string, cause error) error {
	if !d.Enabled() {
		return nil
	}

	subject := "spqsync: repository synchronization failure"
	body := formatFailureHTML(repositoryRoot, cause)

	if err := d.send(ctx, d.Config, subject, body); err != nil {
		sendErr := errs.New(errs.KindNotificationSend, err)
		logger.Warn("failure notification could not be sent: %v", sendErr)
		return sendErr
	}
	logger.Debug("failure notification sent to %d recipient(s)", len(d.Config.Addresses))
	return nil
}

func smtpSend(ctx context.Context, cfg *models.NotificationConfig, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if cfg.FromName != "" {
		if err := msg.FromFormat(cfg.FromName, cfg.From); err != nil {
			return err
		}
	} else if err := msg.From(cfg.From); err != nil {
		return err
	}
	if err := msg.To(cfg.Addresses...); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		pw, err := decodePassword(cfg.EncryptedPassword)
		if err != nil {
			return err
		}
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(pw),
		)
	}

	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func decodePassword(enc string) (string, error) {
	if enc == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("failed to decode stored password: %w", err)
	}
	return string(raw), nil
}

// formatFailureHTML renders the error and its structured details as a
// small self-contained HTML document.
func formatFailureHTML(root string, cause error) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>Repository synchronization failed</h2>")
	fmt.Fprintf(&b, "<p><b>Repository:</b> %s<br/><b>Time:</b> %s</p>",
		html.EscapeString(root), time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "<p><b>Error:</b> %s</p>", html.EscapeString(cause.Error()))

	var se *errs.SyncError
	if errors.As(cause, &se) {
		b.WriteString("<table border=\"1\" cellpadding=\"4\">")
		fmt.Fprintf(&b, "<tr><td>Kind</td><td>%s</td></tr>", se.Kind)
		if se.Platform != "" {
			fmt.Fprintf(&b, "<tr><td>Platform</td><td>%s</td></tr>", html.EscapeString(se.Platform))
		}
		if se.Package != "" {
			fmt.Fprintf(&b, "<tr><td>Package</td><td>%s</td></tr>", html.EscapeString(se.Package))
		}
		b.WriteString("</table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
