package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"

	"github.com/redmonkez12/storefront-api/internal/config"
	"github.com/redmonkez12/storefront-api/internal/logging"
)

var ErrNotConfigured = errors.New("smtp is not configured")

const passwordResetSubject = "Password Reset Request"

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	send         sendFunc
}

func NewService(cfg config.EmailConfig) *Service {
	from := cfg.FromAddress
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
		frontendURL:  cfg.FrontendURL,
		send:         smtp.SendMail,
	}
}

// ResetLink builds the frontend URL that carries a raw reset token.
func (s *Service) ResetLink(rawToken string) string {
	return fmt.Sprintf("%s/reset-password/%s", s.frontendURL, url.PathEscape(rawToken))
}

// SendPasswordResetEmail sends a password reset link to the user. It blocks
// until the SMTP server accepts or rejects the message.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, rawToken string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := renderPasswordResetEmail(s.ResetLink(rawToken))
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.Send(ctx, toEmail, passwordResetSubject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// Send delivers one HTML message. Failures are reported, never retried.
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	if s.smtpHost == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

var passwordResetTemplate = template.Must(template.New("passwordReset").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #1F2937;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .button {
            display: inline-block;
            background-color: #F59E0B;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Password Reset Request</h1>
    </div>
    <div class="content">
        <p>You requested a password reset for your store account. Use the button below to choose a new password.</p>

        <a href="{{.ResetLink}}" class="button" style="color: white !important;">Reset Password</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all;">{{.ResetLink}}</p>

        <p>This link expires in 1 hour and works once. Requesting another reset makes it stop working.</p>
        <p>If you didn't request this, you can ignore this email. Your password stays the same.</p>
    </div>
</body>
</html>
`))

func renderPasswordResetEmail(resetLink string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		ResetLink string
	}{
		ResetLink: resetLink,
	}

	if err := passwordResetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
