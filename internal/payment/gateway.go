package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"farm-to-keells/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sendPaymentPath = "/api/send-payment"

// Gateway dispatches money to a farmer through the payment service.
type Gateway interface {
	Send(ctx context.Context, email string, amount decimal.Decimal) error
}

type httpGateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewGateway(baseURL string) Gateway {
	if baseURL == "" {
		logger.L().Warn("payment service URL is empty")
	}
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	Email  string `json:"email"`
	Amount string `json:"amount"`
}

// Send posts {email, amount}. Only a 200 counts as success.
func (g *httpGateway) Send(ctx context.Context, email string, amount decimal.Decimal) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "Send"),
		zap.String("email", email),
		zap.String("amount", amount.String()),
	)

	body, err := json.Marshal(sendRequest{Email: email, Amount: amount.String()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+sendPaymentPath, bytes.NewReader(body))
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	log.Info("sending payment")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("payment request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error("payment service returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: status %d", ErrDispatchFailed, resp.StatusCode)
	}

	log.Info("payment sent")
	return nil
}
