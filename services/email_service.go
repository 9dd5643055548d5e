package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/clmates/wesnoth-tournament-manager-sub001/config"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
)

// EmailService sends transactional mail and doubles as an event
// subscriber for match lifecycle notifications. Delivery failures are
// logged, never propagated to the producing operation.
type EmailService struct {
	cfg      *config.Config
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewEmailService(cfg *config.Config, userRepo repositories.UserRepository, logger *slog.Logger) *EmailService {
	return &EmailService{cfg: cfg, userRepo: userRepo, logger: logger}
}

func (s *EmailService) Notify(ctx context.Context, event Event) {
	if s.cfg.SMTPHost == "" {
		return
	}

	switch event.Type {
	case EventMatchReported:
		s.notifyPlayer(ctx, event.Match.LoserID,
			"A match was reported against you",
			fmt.Sprintf("<p>A loss on <b>%s</b> was reported for you. Please confirm or dispute it.</p>", event.Match.Map))
	case EventMatchDisputed:
		s.notifyPlayer(ctx, event.Match.WinnerID,
			"Your reported match was disputed",
			fmt.Sprintf("<p>Your opponent disputed the match on <b>%s</b>. An administrator will review it.</p>", event.Match.Map))
	case EventDisputeValidated:
		s.notifyPlayer(ctx, event.Match.WinnerID,
			"Disputed match cancelled",
			"<p>An administrator validated the dispute. The match was cancelled and ratings were recalculated.</p>")
	case EventDisputeRejected:
		s.notifyPlayer(ctx, event.Match.LoserID,
			"Dispute rejected",
			"<p>An administrator rejected your dispute. The match stands as reported.</p>")
	case EventTournamentFinished:
		s.notifyPlayer(ctx, event.WinnerID,
			"You won the tournament!",
			"<p>Congratulations, you are the tournament champion.</p>")
	}
}

func (s *EmailService) notifyPlayer(ctx context.Context, userID int, subject, body string) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("could not resolve notification recipient",
			slog.Int("user_id", userID), slog.Any("error", err))
		return
	}
	if err := s.SendEmail([]string{user.Email}, subject, body); err != nil {
		s.logger.Warn("notification email failed",
			slog.String("to", user.Email), slog.Any("error", err))
	}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client failed: %w", err)
		}
	} else {
		// STARTTLS, usually port 587.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp mail from failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt to %s failed: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write failed: %w", err)
	}
	return w.Close()
}

var _ EventSubscriber = (*EmailService)(nil)
