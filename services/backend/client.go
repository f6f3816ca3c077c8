// Package backend is the HTTP client for the clinic booking service. The
// dialogue engine consumes it as a capability: every transport or business
// failure other than "not found" is reported uniformly so the state machine
// can apply its retry/degrade policy without caring why the call failed.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medibot/models"

	"go.uber.org/zap"
)

// ErrNotFound is returned when the backend reports no matching records. It
// is a business outcome, not an external failure, and is never retried.
var ErrNotFound = errors.New("backend: not found")

// Client talks to the clinic booking backend.
type Client interface {
	SearchDoctors(ctx context.Context, keyword string) ([]models.DoctorInfo, error)
	GetSpecialties(ctx context.Context) ([]string, error)
	GetAvailability(ctx context.Context, doctorID, date string) ([]models.SlotInfo, error)
	CreateBooking(ctx context.Context, req models.BookingRequest, userID, token string) (string, error)
	ListBookings(ctx context.Context, userID, token string) ([]models.AppointmentInfo, error)
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient builds a backend client rooted at baseURL.
func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// doJSON performs the request with at most one retry with backoff. 404 maps
// to ErrNotFound immediately; other failures are retried once.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, body any, token string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			c.logger.Debug("retrying backend call", zap.String("path", path))
		}

		data, err := c.once(ctx, method, path, query, body, token)
		if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
			return data, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *HTTPClient) once(ctx context.Context, method, path string, query url.Values, body any, token string) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend: %s %s returned status %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("backend: decode response: %w", err)
	}
	return env.Data, nil
}

// SearchDoctors queries doctors by name, specialty or city keyword.
func (c *HTTPClient) SearchDoctors(ctx context.Context, keyword string) ([]models.DoctorInfo, error) {
	keyword = strings.TrimSpace(keyword)
	if len(keyword) < 2 {
		return nil, fmt.Errorf("backend: search keyword too short")
	}
	data, err := c.doJSON(ctx, http.MethodGet, "/api/public/search", url.Values{"keyword": {keyword}}, nil, "")
	if err != nil {
		return nil, err
	}
	var doctors []models.DoctorInfo
	if err := json.Unmarshal(data, &doctors); err != nil {
		return nil, fmt.Errorf("backend: decode doctors: %w", err)
	}
	return doctors, nil
}

// GetSpecialties lists the specialty names the clinic offers.
func (c *HTTPClient) GetSpecialties(ctx context.Context) ([]string, error) {
	data, err := c.doJSON(ctx, http.MethodGet, "/api/public/getSpecialist", nil, nil, "")
	if err != nil {
		return nil, err
	}
	var entries []struct {
		Specialist string `json:"specialist"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("backend: decode specialties: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Specialist != "" {
			names = append(names, e.Specialist)
		}
	}
	return names, nil
}

// GetAvailability returns the open slots for a doctor on a date (YYYY-MM-DD).
func (c *HTTPClient) GetAvailability(ctx context.Context, doctorID, date string) ([]models.SlotInfo, error) {
	q := url.Values{"doctorId": {doctorID}, "date": {date}}
	data, err := c.doJSON(ctx, http.MethodGet, "/api/slots", q, nil, "")
	if err != nil {
		return nil, err
	}
	var raw []struct {
		SlotID   string `json:"slotId"`
		SlotTime string `json:"slotTime"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("backend: decode slots: %w", err)
	}
	slots := make([]models.SlotInfo, 0, len(raw))
	for _, s := range raw {
		slots = append(slots, models.SlotInfo{
			SlotID:    s.SlotID,
			Date:      date,
			Time:      s.SlotTime,
			Available: s.Status == "AVAILABLE",
		})
	}
	return slots, nil
}

// CreateBooking creates the appointment and returns the backend booking id.
func (c *HTTPClient) CreateBooking(ctx context.Context, req models.BookingRequest, userID, token string) (string, error) {
	payload := map[string]string{
		"doctorId": req.DoctorID,
		"date":     req.Date,
		"time":     req.Time,
		"userId":   userID,
	}
	data, err := c.doJSON(ctx, http.MethodPost, "/api/bookings", nil, payload, token)
	if err != nil {
		return "", err
	}
	var created struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("backend: decode booking: %w", err)
	}
	return created.BookingID, nil
}

// ListBookings returns the user's existing appointments.
func (c *HTTPClient) ListBookings(ctx context.Context, userID, token string) ([]models.AppointmentInfo, error) {
	q := url.Values{"userId": {userID}}
	data, err := c.doJSON(ctx, http.MethodGet, "/api/bookings", q, nil, token)
	if err != nil {
		return nil, err
	}
	var appts []models.AppointmentInfo
	if err := json.Unmarshal(data, &appts); err != nil {
		return nil, fmt.Errorf("backend: decode appointments: %w", err)
	}
	return appts, nil
}
