package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("prediction service unavailable")

const predictionsPath = "/api/predictions"

var holidayMonths = map[string]bool{
	"April":    true,
	"August":   true,
	"December": true,
}

// IsHoliday reports whether month (full English name) is a festive season.
func IsHoliday(month string) bool {
	return holidayMonths[month]
}

// Prediction is one forecast demand figure in kilograms.
type Prediction struct {
	Location          string  `json:"location"`
	Product           string  `json:"product"`
	Month             string  `json:"month"`
	Year              int     `json:"year"`
	PredictedQuantity float64 `json:"predicted_quantity"`
	Holiday           bool    `json:"holiday"`
}

// Filter narrows predictions. Empty fields and "All" match everything.
type Filter struct {
	Location string
	Month    string
}

func matches(want, got string) bool {
	return want == "" || want == "All" || want == got
}

// Report is a filtered prediction list plus the choices to filter by.
type Report struct {
	Predictions []Prediction `json:"predictions"`
	Locations   []string     `json:"locations"`
	Months      []string     `json:"months"`
}

type Client interface {
	Predictions(ctx context.Context, f Filter) (*Report, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *httpClient) Predictions(ctx context.Context, f Filter) (*Report, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "analytics"),
		zap.String("method", "Predictions"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+predictionsPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("prediction request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("prediction service returned non-success status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var all []Prediction
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		log.Error("failed to decode predictions", zap.Error(err))
		return nil, fmt.Errorf("decode predictions: %w", err)
	}

	return buildReport(all, f), nil
}

func buildReport(all []Prediction, f Filter) *Report {
	r := &Report{
		Predictions: []Prediction{},
		Locations:   []string{},
		Months:      []string{},
	}
	seenLoc := map[string]bool{}
	seenMonth := map[string]bool{}

	for _, p := range all {
		if !seenLoc[p.Location] {
			seenLoc[p.Location] = true
			r.Locations = append(r.Locations, p.Location)
		}
		if !seenMonth[p.Month] {
			seenMonth[p.Month] = true
			r.Months = append(r.Months, p.Month)
		}
		if matches(f.Location, p.Location) && matches(f.Month, p.Month) {
			p.Holiday = IsHoliday(p.Month)
			r.Predictions = append(r.Predictions, p)
		}
	}
	return r
}
