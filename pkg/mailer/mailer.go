package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"inspection-service/pkg/config"
)

// Client talks to an HTTP JSON email provider (Postmark-compatible API).
// Construct it once in main and pass it to the handlers that send mail.
type Client struct {
	apiURL     string
	apiToken   string
	fromEmail  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

// New builds a mail client from config. baseURL is the public address of
// this service, used to build share links in notification bodies.
func New(cfg *config.MailConfig, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiURL:     cfg.APIURL,
		apiToken:   cfg.APIToken,
		fromEmail:  cfg.FromEmail,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the provider token is set.
func (c *Client) Configured() bool {
	return c.apiToken != ""
}

// ProviderError carries the provider's response when a send is rejected
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider error: status %d: %s", e.StatusCode, e.Body)
}

type providerEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

func (c *Client) send(to, subject, textBody, htmlBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing provider token")
	}

	payload := providerEmail{
		From:     c.fromEmail,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ProviderError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	return nil
}

// SendVerificationCode emails the 4-digit registration code
func (c *Client) SendVerificationCode(to, name, code string) error {
	subject := "Verify your email"
	text := fmt.Sprintf("Hi %s,\n\nYour verification code is %s.\n\nThis code expires in 15 minutes.", name, code)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>.</p><p>This code expires in 15 minutes.</p>`,
		name, code,
	)
	return c.send(to, subject, text, html)
}

// SendPasswordResetCode emails the password reset code
func (c *Client) SendPasswordResetCode(to, name, code string) error {
	subject := "Reset your password"
	text := fmt.Sprintf("Hi %s,\n\nYour password reset code is %s.\n\nThis code expires in 15 minutes.\nIf you did not request a reset, you can ignore this email.", name, code)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your password reset code is <strong>%s</strong>.</p><p>This code expires in 15 minutes. If you did not request a reset, you can ignore this email.</p>`,
		name, code,
	)
	return c.send(to, subject, text, html)
}

// SendEmailChangeCode emails the confirmation code to the new address
func (c *Client) SendEmailChangeCode(to, name, code string) error {
	subject := "Confirm your new email address"
	text := fmt.Sprintf("Hi %s,\n\nYour email change code is %s.\n\nThis code expires in 15 minutes.", name, code)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your email change code is <strong>%s</strong>.</p><p>This code expires in 15 minutes.</p>`,
		name, code,
	)
	return c.send(to, subject, text, html)
}

// SendReportStatus notifies the report creator about an approval decision
func (c *Client) SendReportStatus(to, name, reportTitle, status, message, shareToken string) error {
	var subject, verdict string
	switch status {
	case "approved":
		subject = fmt.Sprintf("Your report %q was approved", reportTitle)
		verdict = "approved"
	case "rejected":
		subject = fmt.Sprintf("Your report %q was rejected", reportTitle)
		verdict = "rejected"
	default:
		subject = fmt.Sprintf("Update on your report %q", reportTitle)
		verdict = "updated"
	}

	link := fmt.Sprintf("%s/public/reports/%s", c.baseURL, shareToken)
	text := fmt.Sprintf("Hi %s,\n\nYour inspection report %q was %s.", name, reportTitle, verdict)
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Your inspection report <strong>%s</strong> was %s.</p>`, name, reportTitle, verdict)
	if message != "" {
		text += fmt.Sprintf("\n\nMessage: %s", message)
		html += fmt.Sprintf(`<p>Message: %s</p>`, message)
	}
	text += fmt.Sprintf("\n\nView the report: %s", link)
	html += fmt.Sprintf(`<p><a href="%s">View the report</a></p>`, link)

	return c.send(to, subject, text, html)
}
