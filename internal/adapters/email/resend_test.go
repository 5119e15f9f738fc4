package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/school-finance/backend/internal/adapters/email"
	"github.com/philly/school-finance/backend/internal/notifications/ports"
)

type mockLogger struct {
	infos []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  { m.infos = append(m.infos, msg) }
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {}

func receipt() ports.Receipt {
	return ports.Receipt{
		To:          "guardian@mail.com",
		StudentName: "Mia Cruz",
		BillID:      "b-1",
		Description: "Tuition 2025",
		Amount:      123450,
		Outstanding: 0,
		Settled:     true,
		Period:      "2025-06",
	}
}

func TestResendReceiptSender(t *testing.T) {
	var got resend.SendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email-1"})
	}))
	defer server.Close()

	client := resend.NewClient("test-key")
	client.BaseURL, _ = url.Parse(server.URL + "/")

	sender := email.NewResendReceiptSender(client, "bursar@school.edu", &mockLogger{})
	require.NoError(t, sender.SendReceipt(context.Background(), receipt()))

	assert.Equal(t, "bursar@school.edu", got.From)
	assert.Equal(t, []string{"guardian@mail.com"}, got.To)
	assert.Equal(t, "Payment received: Mia Cruz's bill is paid", got.Subject)
	assert.Contains(t, got.Html, "1,234.50")
	assert.Contains(t, got.Html, "fully paid")
}

func TestResendReceiptSenderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"statusCode": 422, "name": "validation_error", "message": "bad from"})
	}))
	defer server.Close()

	client := resend.NewClient("test-key")
	client.BaseURL, _ = url.Parse(server.URL + "/")

	sender := email.NewResendReceiptSender(client, "bursar@school.edu", &mockLogger{})
	assert.Error(t, sender.SendReceipt(context.Background(), receipt()))
}

func TestLogReceiptSender(t *testing.T) {
	log := &mockLogger{}
	require.NoError(t, email.NewLogReceiptSender(log).SendReceipt(context.Background(), receipt()))
	assert.Equal(t, []string{"email disabled, receipt not sent"}, log.infos)
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:         "0.00",
		5:         "0.05",
		100:       "1.00",
		123450:    "1,234.50",
		100000000: "1,000,000.00",
		-2550:     "-25.50",
	}
	for cents, want := range tests {
		assert.Equal(t, want, email.FormatCents(cents))
	}
}
