package notifications

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"cleanpro-backend/models"
)

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers notification events as plain-text email.
type SMTPNotifier struct {
	Config SMTPConfig
}

var subjects = map[models.NotificationType]string{
	models.NotifyAppointmentCancelled:   "Your cleaning appointment was cancelled",
	models.NotifyAppointmentRescheduled: "Your cleaning appointment was rescheduled",
	models.NotifyRunningLate:            "We're running a little late",
	models.NotifyInvoiceSent:            "Your invoice is ready",
	models.NotifyPaymentReceived:        "Payment received",
	models.NotifyZelleRejected:          "We couldn't verify your Zelle payment",
}

func (n *SMTPNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	if event.RecipientEmail == "" {
		return errors.New("notification event has no recipient email")
	}
	subject, ok := subjects[event.Type]
	if !ok {
		subject = "Update from your cleaning service"
	}
	body := event.Message
	if event.Link != "" {
		body += "\n\n" + event.Link
	}
	message := buildMessage(n.Config.From, event.RecipientEmail, subject, body)
	return n.send(event.RecipientEmail, message)
}

func (n *SMTPNotifier) send(to string, message string) error {
	cfg := n.Config
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	fromAddr := parseAddress(cfg.From)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	client, err := smtpClient(addr, cfg.Host, cfg.Port)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(fromAddr); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func smtpClient(addr string, host string, port int) (*smtp.Client, error) {
	if port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, host)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

func buildMessage(from string, to string, subject string, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(headers, "\r\n")
}

func parseAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}
