package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IAlertMailer interface {
	SendBudgetAlert(incomingMethod string, promptTokens, maxTokens, totalLimit int) error
}

type alertMailer struct {
	dialer      *gomail.Dialer
	senderEmail string
	recipient   string
}

func NewAlertMailer(host string, port int, username, password, senderEmail, recipient string) IAlertMailer {
	return &alertMailer{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		recipient:   recipient,
	}
}

// SendBudgetAlert notifies engineering that a prompt left no room for a
// response. These indicate context assembly producing oversized prompts
// and need manual investigation.
func (s *alertMailer) SendBudgetAlert(incomingMethod string, promptTokens, maxTokens, totalLimit int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", s.recipient)
	m.SetHeader("Subject", fmt.Sprintf("Token budget exhausted in %s", incomingMethod))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Response token budget exhausted</h2>
			<p>A completion request was refused because its prompt left less than the minimum response budget.</p>
			<ul>
				<li><b>Method:</b> %s</li>
				<li><b>Prompt tokens:</b> %d</li>
				<li><b>Remaining budget:</b> %d</li>
				<li><b>Model limit:</b> %d</li>
			</ul>
			<p>Check the context assembly for this patient: the retrieved window may be too large.</p>
		</div>
	`, incomingMethod, promptTokens, maxTokens, totalLimit)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send budget alert: %w", err)
	}
	return nil
}
