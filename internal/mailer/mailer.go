package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrSendFailed     = errors.New("failed to send email")
	ErrMissingFields  = errors.New("name, email and message are required")
	ErrInvalidAddress = errors.New("invalid email address")
	ErrNotConfigured  = errors.New("email service is not configured")
)

// Config carries the template service credentials.
type Config struct {
	APIURL      string
	ServiceID   string
	TemplateID  string
	PublicKey   string
	AccessToken string
}

// Inquiry is a contact form submission.
type Inquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (in *Inquiry) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
}

func (in Inquiry) Validate() error {
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return ErrMissingFields
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return ErrInvalidAddress
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, params map[string]string) error
	SendInquiry(ctx context.Context, in Inquiry) error
}

type httpMailer struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) Mailer {
	return &httpMailer{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send renders the configured template with params.
func (m *httpMailer) Send(ctx context.Context, params map[string]string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "mailer"),
		zap.String("method", "Send"),
	)

	if m.cfg.APIURL == "" || m.cfg.ServiceID == "" || m.cfg.TemplateID == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      m.cfg.ServiceID,
		TemplateID:     m.cfg.TemplateID,
		UserID:         m.cfg.PublicKey,
		AccessToken:    m.cfg.AccessToken,
		TemplateParams: params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Error("email request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("email service rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}

	log.Info("email sent")
	return nil
}

func (m *httpMailer) SendInquiry(ctx context.Context, in Inquiry) error {
	in.normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	return m.Send(ctx, map[string]string{
		"from_name":  in.Name,
		"from_email": in.Email,
		"reply_to":   in.Email,
		"message":    in.Message,
	})
}
