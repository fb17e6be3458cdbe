package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/model"
)

// Config holds the SMTP relay settings. An empty Host disables sending.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends quote and booking confirmation emails over SMTP.
type Mailer struct {
	cfg      Config
	log      zerolog.Logger
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg Config, log zerolog.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, log: log, sendMail: smtp.SendMail}
}

// Enabled reports whether an SMTP relay is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendQuoteConfirmation emails the customer a plain-text summary of their
// quote or booking.
func (m *Mailer) SendQuoteConfirmation(to string, lead model.Lead) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp relay not configured")
	}

	subject := "Your Auto Transport Quote"
	if lead.EventType == model.EventFinalSubmission {
		subject = "Your Auto Transport Booking Confirmation"
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := buildMessage(m.cfg.From, to, subject, confirmationBody(lead))

	if err := m.sendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	m.log.Info().Str("to", to).Str("event_type", string(lead.EventType)).Msg("confirmation email sent")
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n")
}

func confirmationBody(lead model.Lead) string {
	name := lead.Name
	if name == "" {
		name = "Customer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", name)
	b.WriteString("Thank you for choosing Amerigo Auto Transport. Here are your quote details:\r\n\r\n")

	vehicle := strings.TrimSpace(fmt.Sprintf("%s %s %s", lead.VehicleYear, lead.VehicleMake, lead.VehicleModel))
	if vehicle != "" {
		fmt.Fprintf(&b, "Vehicle: %s\r\n", vehicle)
	}
	fmt.Fprintf(&b, "Pickup: %s\r\n", lead.PickupLocation)
	fmt.Fprintf(&b, "Dropoff: %s\r\n", lead.DropoffLocation)
	if lead.ShipmentDate != "" {
		fmt.Fprintf(&b, "Ship date: %s\r\n", lead.ShipmentDate)
	}
	if lead.TransitTime > 0 {
		fmt.Fprintf(&b, "Estimated transit: %d days\r\n", lead.TransitTime)
	}
	if lead.OpenTransportPrice > 0 {
		fmt.Fprintf(&b, "Open transport: $%d\r\n", lead.OpenTransportPrice)
	}
	if lead.EnclosedTransportPrice > 0 {
		fmt.Fprintf(&b, "Enclosed transport: $%d\r\n", lead.EnclosedTransportPrice)
	}

	b.WriteString("\r\nThis quote is valid for 7 days. If you have any questions, please contact our team.\r\n")
	b.WriteString("Amerigo Auto Transport\r\n")
	return b.String()
}
