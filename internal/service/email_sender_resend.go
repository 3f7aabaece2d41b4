package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendEmailSender dispatches transactional mail through Resend. It is
// only ever called after the owning transaction has committed.
type ResendEmailSender struct {
	client     *resend.Client
	From       string
	AppBaseURL string
	VerifyPath string
	ResetPath  string
	LoginPath  string
}

func NewResendEmailSender(apiKey string, from string, appBaseURL string) *ResendEmailSender {
	sender := &ResendEmailSender{
		From:       from,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
		VerifyPath: "/verify-email",
		ResetPath:  "/reset-password",
		LoginPath:  "/login",
	}
	if strings.TrimSpace(apiKey) != "" {
		sender.client = resend.NewClient(apiKey)
	}
	return sender
}

func (s *ResendEmailSender) SendVerificationEmail(ctx context.Context, email string, token string) error {
	link := s.buildURL(s.VerifyPath, token)
	html := fmt.Sprintf("<p>Welcome to ShuleHub.</p><p><a href=\"%s\">Verify your email</a></p>", link)
	text := fmt.Sprintf("Verify your email: %s", link)
	return s.send(ctx, email, "Verify your email", html, text)
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, email string, token string) error {
	link := s.buildURL(s.ResetPath, token)
	html := fmt.Sprintf("<p>A password reset was requested for your account.</p><p><a href=\"%s\">Reset password</a></p>", link)
	text := fmt.Sprintf("Reset your password: %s", link)
	return s.send(ctx, email, "Reset your password", html, text)
}

func (s *ResendEmailSender) SendParentInvite(ctx context.Context, email string, tempPassword string) error {
	link := s.AppBaseURL + s.LoginPath
	html := fmt.Sprintf(
		"<p>An account was created for you on ShuleHub.</p><p>Temporary password: <code>%s</code></p><p><a href=\"%s\">Sign in</a> and change it right away.</p>",
		tempPassword, link,
	)
	text := fmt.Sprintf("Your temporary ShuleHub password is %s. Sign in at %s and change it right away.", tempPassword, link)
	return s.send(ctx, email, "Your ShuleHub account", html, text)
}

func (s *ResendEmailSender) buildURL(path string, token string) string {
	if s.AppBaseURL == "" {
		return token
	}
	return fmt.Sprintf("%s%s?token=%s", s.AppBaseURL, path, token)
}

func (s *ResendEmailSender) send(ctx context.Context, to string, subject string, html string, text string) error {
	if s.client == nil {
		return errors.New("email sender not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	return err
}
