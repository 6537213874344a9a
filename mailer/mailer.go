package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/billsync/billsync_backend/models"
)

type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

func ConfigFromEnv() Config {
	port, err := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if err != nil || port <= 0 {
		port = 587
	}
	cfg := Config{
		Host:       os.Getenv("MAIL_SERVER"),
		Port:       port,
		Username:   os.Getenv("MAIL_USERNAME"),
		Password:   os.Getenv("MAIL_PASSWORD"),
		From:       os.Getenv("MAIL_DEFAULT_SENDER"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = cfg.Username
	}
	return cfg
}

// Mailer sends transactional mail over SMTP. All sends are best-effort from
// the API's point of view: callers report failures in the response flags but
// never roll back committed writes because of them.
type Mailer struct {
	cfg    Config
	logger *logrus.Logger
}

func New(cfg Config, logger *logrus.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Enabled reports whether SMTP credentials were provided at all.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.Username != ""
}

func (m *Mailer) SendInvoiceEmail(invoice *models.Invoice, to string) error {
	subject := fmt.Sprintf("Invoice %s from BillSync", invoice.InvoiceNumber)
	html := RenderInvoiceEmail(invoice)
	return m.send(to, subject, html)
}

func (m *Mailer) SendWelcomeEmail(to string, tempPassword string) error {
	subject := "Your BillSync Account Details"
	html := RenderWelcomeEmail(to, tempPassword)
	return m.send(to, subject, html)
}

func (m *Mailer) send(to string, subject string, htmlBody string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer is not configured")
	}

	message := buildMessage(m.cfg.From, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	client, err := smtpClient(addr, m.cfg.Host, m.cfg.Port)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(parseAddress(m.cfg.From)); err != nil {
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
	if err := writer.Close(); err != nil {
		return err
	}
	// Some servers only durably accept the message on QUIT; the deferred
	// Close stays as the teardown for error paths.
	if err := client.Quit(); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"module":  "Mailer",
		"to":      to,
		"subject": subject,
	}).Debug("email sent")
	return nil
}

func smtpClient(addr string, host string, port int) (*smtp.Client, error) {
	// Port 465 is implicit TLS; everything else upgrades via STARTTLS when offered.
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

func buildMessage(from string, to string, subject string, htmlBody string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		htmlBody,
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
