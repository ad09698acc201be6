package mailer

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inspection-service/pkg/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.MailConfig{
		APIURL:    server.URL,
		APIToken:  "test-token",
		FromEmail: "noreply@example.com",
	}
	return New(cfg, "https://inspection.test", WithHTTPClient(server.Client())), server
}

func TestSendVerificationCode(t *testing.T) {
	var received providerEmail
	var gotToken string

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	})

	if err := client.SendVerificationCode("alice@example.com", "Alice", "1234"); err != nil {
		t.Fatalf("send verification code: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if !strings.Contains(received.TextBody, "1234") {
		t.Errorf("TextBody does not contain the code: %q", received.TextBody)
	}
	if !strings.Contains(received.HtmlBody, "<strong>1234</strong>") {
		t.Errorf("HtmlBody does not contain the code: %q", received.HtmlBody)
	}
}

func TestSendReportStatusApproved(t *testing.T) {
	var received providerEmail

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	})

	err := client.SendReportStatus("bob@example.com", "Bob", "Move-in 2026", "approved", "Looks good", "tok-123")
	if err != nil {
		t.Fatalf("send report status: %v", err)
	}

	if received.Subject != `Your report "Move-in 2026" was approved` {
		t.Errorf("Subject = %q, want approved subject", received.Subject)
	}
	if !strings.Contains(received.TextBody, "Looks good") {
		t.Errorf("TextBody missing reviewer message: %q", received.TextBody)
	}
	if !strings.Contains(received.TextBody, "https://inspection.test/public/reports/tok-123") {
		t.Errorf("TextBody missing share link: %q", received.TextBody)
	}
}

func TestSendReportStatusRejected(t *testing.T) {
	var received providerEmail

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	})

	err := client.SendReportStatus("bob@example.com", "Bob", "Move-out", "rejected", "", "tok-456")
	if err != nil {
		t.Fatalf("send report status: %v", err)
	}

	if received.Subject != `Your report "Move-out" was rejected` {
		t.Errorf("Subject = %q, want rejected subject", received.Subject)
	}
	if strings.Contains(received.TextBody, "Message:") {
		t.Errorf("TextBody has message block for empty message: %q", received.TextBody)
	}
}

func TestSendNotConfigured(t *testing.T) {
	cfg := &config.MailConfig{FromEmail: "noreply@example.com"}
	client := New(cfg, "https://inspection.test")

	if client.Configured() {
		t.Fatal("client without token reports configured")
	}
	if err := client.SendVerificationCode("alice@example.com", "Alice", "1234"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendProviderError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode": 300, "Message": "Invalid email"}`))
	})

	err := client.SendPasswordResetCode("alice@example.com", "Alice", "9999")
	if err == nil {
		t.Fatal("expected provider error")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if provErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want %d", provErr.StatusCode, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(provErr.Body, "Invalid email") {
		t.Errorf("Body = %q, want provider message", provErr.Body)
	}
}
