package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
)

const invitationTemplateHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #222;">
  <h2>Ihre Fotogalerie ist bereit</h2>
  <p>Hallo {{.ClientName}},</p>
  <p>Ihre Bilder sind jetzt online. Über den folgenden Link gelangen Sie zu Ihrer persönlichen Galerie:</p>
  <p><a href="{{.GalleryURL}}">{{.GalleryURL}}</a></p>
  <p>Der Zugang ist gültig bis {{.ExpiresAt}}.</p>
  <p>Mit freundlichen Grüßen,<br>{{.StudioName}}</p>
</body>
</html>`

type EmailService struct {
	cfg                *config.Config
	invitationTemplate *template.Template
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		cfg:                cfg,
		invitationTemplate: template.Must(template.New("invitation").Parse(invitationTemplateHTML)),
	}
}

// SendInvitationEmail delivers the gallery link to the recipient
func (s *EmailService) SendInvitationEmail(invitation *models.Invitation, galleryURL string) error {
	if invitation.ClientEmail == "" {
		return fmt.Errorf("invitation %s has no client email", invitation.ID)
	}

	data := map[string]interface{}{
		"ClientName": invitation.ClientName,
		"GalleryURL": galleryURL,
		"ExpiresAt":  invitation.ExpiresAt.Format("02.01.2006"),
		"StudioName": s.cfg.SMTPFromName,
	}

	var body bytes.Buffer
	if err := s.invitationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Ihre Fotogalerie - %s", s.cfg.SMTPFromName)
	return s.sendHTML(invitation.ClientEmail, subject, body.String())
}

// SendExpiryReminder notifies the recipient shortly before the link expires
func (s *EmailService) SendExpiryReminder(invitation *models.Invitation, galleryURL string) error {
	if invitation.ClientEmail == "" {
		return fmt.Errorf("invitation %s has no client email", invitation.ID)
	}

	daysLeft := int(time.Until(invitation.ExpiresAt).Hours() / 24)
	body := fmt.Sprintf(`Hallo %s,

Ihre Fotogalerie ist noch %d Tage erreichbar:

%s

Mit freundlichen Grüßen,
%s`, invitation.ClientName, daysLeft, galleryURL, s.cfg.SMTPFromName)

	return s.SendGenericTextEmail(invitation.ClientEmail, "Erinnerung: Ihre Fotogalerie läuft bald ab", body)
}

// SendGenericTextEmail sends a plain text email with given subject and body
func (s *EmailService) SendGenericTextEmail(to, subject, body string) error {
	from := fmt.Sprintf("%s <%s>", s.cfg.SMTPFromName, s.cfg.SMTPFrom)
	message := fmt.Sprintf("From: %s\r\n", from)
	message += fmt.Sprintf("To: %s\r\n", to)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "Content-Type: text/plain; charset=\"UTF-8\"\r\n"
	message += "\r\n"
	message += body
	return s.sendSMTP(to, []byte(message))
}

func (s *EmailService) sendHTML(to, subject, body string) error {
	from := fmt.Sprintf("%s <%s>", s.cfg.SMTPFromName, s.cfg.SMTPFrom)
	message := fmt.Sprintf("From: %s\r\n", from)
	message += fmt.Sprintf("To: %s\r\n", to)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "MIME-Version: 1.0\r\n"
	message += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	message += "\r\n"
	message += body
	return s.sendSMTP(to, []byte(message))
}

// sendSMTP sends an email via SMTP
func (s *EmailService) sendSMTP(to string, message []byte) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	// Implicit TLS (port 465)
	if s.cfg.SMTPPort == 465 {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.SMTPHost,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Close()

		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}

		if err := client.Mail(s.cfg.SMTPFrom); err != nil {
			return err
		}
		if err := client.Rcpt(to); err != nil {
			return err
		}

		w, err := client.Data()
		if err != nil {
			return err
		}
		if _, err = w.Write(message); err != nil {
			return err
		}
		if err = w.Close(); err != nil {
			return err
		}

		return client.Quit()
	}

	// STARTTLS (port 587)
	return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, message)
}
