package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"practico/internal/models"
)

type EmailService interface {
	SendOTP(ctx context.Context, to string, purpose models.OTPPurpose, code string, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, to, name string) error
	SendPaymentSuccess(ctx context.Context, to string, p PaymentMail) error
}

type PaymentMail struct {
	Name        string
	PaymentID   string
	Amount      string
	Currency    string
	MemberUntil time.Time
	ReceiptPDF  []byte
}

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender mailSender
	from   string
	dryRun bool
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, dryRun bool) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return newEmailService(dialer, fromEmail, dryRun)
}

func newEmailService(sender mailSender, from string, dryRun bool) *emailService {
	return &emailService{sender: sender, from: from, dryRun: dryRun}
}

func (s *emailService) SendOTP(ctx context.Context, to string, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	m := s.newMessage(to)
	minutes := int(ttl.Round(time.Minute) / time.Minute)

	switch purpose {
	case models.PurposePasswordReset:
		m.SetHeader("Subject", "Password Reset - Practico")
		m.SetBody("text/html", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
			<h2>Password Reset Request</h2>
			<p>You requested to reset your password. Your verification code is:</p>
			<h1 style="color: #667eea; font-size: 32px; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in %d minutes.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, code, minutes))
	default:
		m.SetHeader("Subject", "Email Verification - Practico")
		m.SetBody("text/html", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
			<h2>Email Verification</h2>
			<p>Your verification code is:</p>
			<h1 style="color: #4CAF50; font-size: 32px; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in %d minutes.</p>
		</div>
	`, code, minutes))
	}
	return s.send(ctx, m, "otp")
}

func (s *emailService) SendPasswordChanged(ctx context.Context, to, name string) error {
	m := s.newMessage(to)
	m.SetHeader("Subject", "Password Changed - Practico")
	m.SetBody("text/html", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
			<h2>Password Changed</h2>
			<p>Hello %s,</p>
			<p>Your password has been changed successfully.</p>
			<p>If you didn't make this change, please contact support immediately.</p>
		</div>
	`, name))
	return s.send(ctx, m, "password-changed")
}

func (s *emailService) SendPaymentSuccess(ctx context.Context, to string, p PaymentMail) error {
	m := s.newMessage(to)
	m.SetHeader("Subject", "Payment Successful - PractiCo Premium")
	m.SetBody("text/html", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
			<h2 style="color: #4CAF50;">Payment Successful!</h2>
			<p>Hello %s, your payment has been processed successfully.</p>
			<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px; margin: 20px 0;">
				<p><strong>Amount:</strong> %s %s</p>
				<p><strong>Payment ID:</strong> %s</p>
				<p><strong>Expires:</strong> %s</p>
			</div>
			<p>You can now login and access all premium features!</p>
			<p style="margin-top: 20px; font-size: 12px; color: #666;">
				By completing this payment, you have accepted our Terms of Service, Privacy Policy, and Distance Sales Agreement.
			</p>
		</div>
	`, p.Name, p.Amount, p.Currency, p.PaymentID, p.MemberUntil.Format("02.01.2006")))

	if len(p.ReceiptPDF) > 0 {
		pdf := p.ReceiptPDF
		m.Attach("practico-receipt.pdf",
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(pdf)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		)
	}
	return s.send(ctx, m, "payment-success")
}

func (s *emailService) newMessage(to string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	return m
}

func (s *emailService) send(ctx context.Context, m *gomail.Message, kind string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.dryRun {
		log.Printf("[email][%s][dry-run] to=%v subject=%v", kind, m.GetHeader("To"), m.GetHeader("Subject"))
		return nil
	}
	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	log.Printf("[email][%s] sent to=%v", kind, m.GetHeader("To"))
	return nil
}
