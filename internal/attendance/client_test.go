package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

func TestClient_MarkAttendance(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mark-attendance", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, Verify("s3cret", body, r.Header.Get(SignatureHeader)))

		var req MarkRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "2021001", req.StudentID)
		assert.Equal(t, "Mathematics", req.Subject)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.AttendanceReceipt{
			Message: domain.AttendanceMarkedMessage,
			Records: []domain.AttendanceRecord{{StudentID: req.StudentID, Subject: req.Subject, MarkedAt: time.Now()}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", Timeout: time.Second, Secret: "s3cret"})
	receipt, err := client.MarkAttendance(context.Background(), "2021001", "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceMarkedMessage, receipt.Message)
	require.Len(t, receipt.Records, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Unsigned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL, Timeout: time.Second}).
		MarkAttendance(context.Background(), "1", "Physics")
	require.NoError(t, err)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{name: "bad request flat error", status: http.StatusBadRequest, body: `{"error":"Missing student_id or subject"}`, contains: "Missing student_id or subject"},
		{name: "nested error", status: http.StatusUnauthorized, body: `{"error":{"code":"INVALID_SIGNATURE","message":"Invalid request signature"}}`, contains: "Invalid request signature"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", contains: "status 500"},
		{name: "invalid json", status: http.StatusOK, body: "not json", contains: "decode response"},
		{name: "no message", status: http.StatusOK, body: `{}`, contains: "no message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(Config{BaseURL: server.URL, Timeout: time.Second}).
				MarkAttendance(context.Background(), "2021001", "Mathematics")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrAttendanceUnavailable))
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, int32(1), calls.Load(), "calls must not be retried")
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: url, Timeout: time.Second}).
		MarkAttendance(context.Background(), "2021001", "Mathematics")
	assert.True(t, errors.Is(err, domain.ErrAttendanceUnavailable))
}
