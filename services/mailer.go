package services

import (
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/dineflow/reserva-backend/config"
	"github.com/dineflow/reserva-backend/utils"
)

// Mailer sends transactional mail. Delivery is fire-and-forget: callers
// never block on it and a failed send only shows up in the logs. A nil
// Mailer (no SMTP configured) silently drops everything, which keeps local
// development working without a mail server.
type Mailer struct {
	client *mail.Client
	from   string
}

func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	client, err := mail.NewClient(
		cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUser),
		mail.WithPassword(cfg.SMTPPass),
	)
	if err != nil {
		utils.ErrorLogger.Printf("mailer disabled, smtp client init failed: %v", err)
		return nil
	}
	return &Mailer{client: client, from: cfg.MailFrom}
}

func (m *Mailer) send(to, subject, body string) {
	if m == nil || m.client == nil {
		return
	}
	go func() {
		msg := mail.NewMsg()
		if err := msg.From(m.from); err != nil {
			utils.ErrorLogger.Printf("mail from %q: %v", m.from, err)
			return
		}
		if err := msg.To(to); err != nil {
			utils.ErrorLogger.Printf("mail to %q: %v", to, err)
			return
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextPlain, body)
		if err := m.client.DialAndSend(msg); err != nil {
			utils.ErrorLogger.Printf("mail to %q: %v", to, err)
		}
	}()
}

func (m *Mailer) SendVerificationCode(to, code string) {
	m.send(to, "Verify your email",
		fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code))
}

func (m *Mailer) SendBookingConfirmation(to, restaurantName, date, startTime, checkinCode string) {
	body := fmt.Sprintf(
		"Your table at %s is reserved for %s at %s.\nShow code %s at the entrance to check in.",
		restaurantName, date, startTime, checkinCode)
	m.send(to, "Reservation confirmed", body)
}

func (m *Mailer) SendBookingCancellation(to, restaurantName, date, startTime string) {
	body := fmt.Sprintf("Your reservation at %s for %s at %s has been cancelled.",
		restaurantName, date, startTime)
	m.send(to, "Reservation cancelled", body)
}
