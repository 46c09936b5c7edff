package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendDeadLetterAlert(toEmail, requestId, lastError string, attempts int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendDeadLetterAlert notifies operators that an audit record could not be
// persisted and is waiting for reconciliation.
func (s *emailService) SendDeadLetterAlert(toEmail, requestId, lastError string, attempts int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Audit record dead-lettered")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Audit record could not be persisted</h2>
			<p>Request ID: <strong>%s</strong></p>
			<p>Attempts: %d</p>
			<p>Last error: %s</p>
			<p>The record is held in the dead-letter list and needs manual reconciliation.</p>
		</div>
	`, requestId, attempts, lastError)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send dead-letter alert for %s: %v\n", requestId, err)
		return err
	}

	fmt.Printf("[MAILER] Dead-letter alert sent for %s\n", requestId)
	return nil
}
