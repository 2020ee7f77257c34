package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Config holds the attendance collaborator endpoint
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Secret signs request bodies when set
	Secret string
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:5001",
		Timeout: 10 * time.Second,
	}
}

// MarkRequest is the body of POST /mark-attendance
type MarkRequest struct {
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
}

// Client calls the attendance recording service. Calls are never retried.
type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// MarkAttendance posts one attendance mark. Transport failures, non-2xx
// responses and responses without a message fail with
// ErrAttendanceUnavailable.
func (c *Client) MarkAttendance(ctx context.Context, studentID, subject string) (domain.AttendanceReceipt, error) {
	body, err := json.Marshal(MarkRequest{StudentID: studentID, Subject: subject})
	if err != nil {
		return domain.AttendanceReceipt{}, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/mark-attendance"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.AttendanceReceipt{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.config.Secret, body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AttendanceReceipt{}, domain.ErrAttendanceUnavailable.WithError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.AttendanceReceipt{}, domain.ErrAttendanceUnavailable.WithError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.AttendanceReceipt{}, domain.ErrAttendanceUnavailable.WithError(
			fmt.Errorf("status %d: %s", resp.StatusCode, errorMessage(respBody)))
	}

	var receipt domain.AttendanceReceipt
	if err := json.Unmarshal(respBody, &receipt); err != nil {
		return domain.AttendanceReceipt{}, domain.ErrAttendanceUnavailable.WithError(fmt.Errorf("decode response: %w", err))
	}
	if receipt.Message == "" {
		return domain.AttendanceReceipt{}, domain.ErrAttendanceUnavailable.WithError(fmt.Errorf("response has no message"))
	}
	return receipt, nil
}

// errorMessage extracts the error text from either {"error":"..."} or
// {"error":{"message":"..."}}
func errorMessage(body []byte) string {
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	return strings.TrimSpace(string(body))
}
