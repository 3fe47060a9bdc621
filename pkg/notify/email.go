package notify

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// EmailSender delivers the auto-completion reminder. Errors are the sender's
// to log; callers treat delivery as best-effort.
type EmailSender interface {
	SendTaskCompleted(recipient, taskTitle string, taskID uint)
}

// SMTPSender sends plain-text mail through a configured relay. There is no
// SMTP client library anywhere in our stack, so this stays on net/smtp.
type SMTPSender struct {
	host string
	port string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host, port, from, user, pass string) *SMTPSender {
	s := &SMTPSender{host: host, port: port, from: from}
	if user != "" {
		s.auth = smtp.PlainAuth("", user, pass, host)
	}
	return s
}

func (s *SMTPSender) SendTaskCompleted(recipient, taskTitle string, taskID uint) {
	if s.host == "" || recipient == "" {
		zap.L().Warn("skipping completion email, no smtp host or recipient",
			zap.Uint("task_id", taskID), zap.String("recipient", recipient))
		return
	}

	subject := "Task Completed: " + taskTitle
	body := fmt.Sprintf("The task %q (ID: %d) has been automatically marked as completed.", taskTitle, taskID)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, recipient, subject, body))

	if err := smtp.SendMail(s.host+":"+s.port, s.auth, s.from, []string{recipient}, msg); err != nil {
		zap.L().Error("failed to send completion email",
			zap.Uint("task_id", taskID), zap.String("recipient", recipient), zap.Error(err))
		return
	}
	zap.L().Info("sent completion email",
		zap.Uint("task_id", taskID), zap.String("recipient", recipient))
}

var _ EmailSender = (*SMTPSender)(nil)
