// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// defaultTimeout bounds non-streaming requests.
	defaultTimeout = 30 * time.Second

	// streamTimeout bounds a full streaming answer. Generous: the backend
	// can spend most of this thinking before the first byte arrives.
	streamTimeout = 10 * time.Minute

	// askBurst and askInterval throttle POST /assistant/ask so a scripted
	// caller cannot hammer the backend.
	askBurst    = 2
	askInterval = time.Second
)

// sharedClient is reused for all non-streaming requests.
// PERFORMANCE: one transport means one connection pool per backend host.
var sharedClient = &http.Client{Timeout: defaultTimeout}

// sharedStreamClient has no overall timeout; streams are bounded per-request
// via context deadlines instead.
var sharedStreamClient = &http.Client{}

// =============================================================================
// ERRORS
// =============================================================================

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Status == http.StatusNotFound
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one askdesk backend.
type Client struct {
	baseURL      string
	username     string
	password     string
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

// New returns a Client for baseURL. Credentials may be empty when the
// backend does not require basic auth.
func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		username:     username,
		password:     password,
		httpClient:   sharedClient,
		streamClient: sharedStreamClient,
		limiter:      rate.NewLimiter(rate.Every(askInterval), askBurst),
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// doJSON performs a request and decodes the JSON response into out.
// Pass a nil out to discard the body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readStatusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	// Bound the error body; backends occasionally return full HTML pages.
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Categories fetches the navigation tree shown on the start screen.
func (c *Client) Categories(ctx context.Context) (*CategoriesResponse, error) {
	var out CategoriesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/assistant/categories", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// ASK (STREAMING)
// =============================================================================

// Ask submits a prompt and returns the open response body of the streaming
// answer. The caller owns the body and must close it; feed it to a Decoder
// to reassemble the answer.
//
// RELIABILITY: failed requests are not retried. The backend treats every ask
// as a conversation mutation, so a blind retry could duplicate the turn.
func (c *Client) Ask(ctx context.Context, p AskParams) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("prompt", p.Prompt)
	if p.Locale != "" {
		q.Set("locale", p.Locale)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Subcategory != "" {
		q.Set("subcategory", p.Subcategory)
	}
	if p.SubcategoryReport != "" {
		q.Set("subcategory_report", p.SubcategoryReport)
	}
	if p.ConversationID != "" {
		q.Set("conversation_id", p.ConversationID)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/assistant/ask?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ask request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}
	return resp.Body, nil
}

// StreamTimeout returns the recommended deadline for one streamed answer.
func StreamTimeout() time.Duration { return streamTimeout }

// =============================================================================
// CONVERSATIONS
// =============================================================================

// MyConversations lists the caller's saved conversations.
func (c *Client) MyConversations(ctx context.Context) ([]ConversationSummary, error) {
	var out []ConversationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/conversation/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConversationHistory fetches the full transcript of one conversation.
func (c *Client) ConversationHistory(ctx context.Context, id string) (*ConversationHistory, error) {
	var out ConversationHistory
	path := "/conversation/by-id/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.ID.IsZero() {
		out.ID = FlexID(id)
	}
	return &out, nil
}

// AddFeedback records a rating for one assistant message.
func (c *Client) AddFeedback(ctx context.Context, id string, fb FeedbackRequest) error {
	path := "/conversation/by-id/" + url.PathEscape(id) + "/add-feedback"
	return c.doJSON(ctx, http.MethodPost, path, fb, nil)
}

// =============================================================================
// KNOWLEDGE FILES
// =============================================================================

// DownloadFile streams a knowledge-base attachment into w and returns the
// number of bytes written.
func (c *Client) DownloadFile(ctx context.Context, path string, w io.Writer) (int64, error) {
	q := url.Values{}
	q.Set("path", path)
	return c.downloadBlob(ctx, "/knowledge/get-file?"+q.Encode(), w, "file download")
}

// =============================================================================
// REGISTRATION
// =============================================================================

// RegistrationKind selects the submit-form variant.
type RegistrationKind string

const (
	RegistrationIndividual RegistrationKind = "individual"
	RegistrationCorporate  RegistrationKind = "corporate"
)

// RegistrationSubmission is the multipart payload of POST /form/submit-form.
// BIN and IIN are only sent for the corporate variant.
type RegistrationSubmission struct {
	Kind           RegistrationKind
	ConversationID string
	LastName       string
	FirstName      string
	MiddleName     string
	Phone          string
	Email          string
	Region         string
	Description    string
	BIN            string
	IIN            string
	FilePaths      []string
}

// SubmitRegistration uploads a filled registration form.
func (c *Client) SubmitRegistration(ctx context.Context, sub RegistrationSubmission) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"conversation_id": sub.ConversationID,
		"last_name":       sub.LastName,
		"first_name":      sub.FirstName,
		"middle_name":     sub.MiddleName,
		"phone":           sub.Phone,
		"email":           sub.Email,
		"region":          sub.Region,
		"description":     sub.Description,
	}
	if sub.Kind == RegistrationCorporate {
		fields["bin_number"] = sub.BIN
		fields["iin_number"] = sub.IIN
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("writing form field %s: %w", name, err)
		}
	}
	for _, p := range sub.FilePaths {
		if err := attachFile(mw, p); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalizing form: %w", err)
	}

	path := "/form/submit-form/" + string(sub.Kind)
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readStatusError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func attachFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating attachment part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying attachment: %w", err)
	}
	return nil
}

// Regions fetches the region list offered by the registration form.
func (c *Client) Regions(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, "/form/get-regions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// CheckAdmin verifies the configured credentials against the admin surface.
func (c *Client) CheckAdmin(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/check-admin", nil, nil)
}

// ExportFeedback downloads the feedback report for a date range into w.
// Dates are formatted YYYY-MM-DD; either may be empty for an open range.
func (c *Client) ExportFeedback(ctx context.Context, fromDate, toDate string, w io.Writer) (int64, error) {
	q := url.Values{}
	if fromDate != "" {
		q.Set("from_date", fromDate)
	}
	if toDate != "" {
		q.Set("to_date", toDate)
	}
	path := "/conversation/export.xlsx"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.downloadBlob(ctx, path, w, "feedback export")
}

// KnowledgeExport downloads the knowledge-base workbook into w.
func (c *Client) KnowledgeExport(ctx context.Context, w io.Writer) (int64, error) {
	return c.downloadBlob(ctx, "/knowledge/", w, "knowledge export")
}

func (c *Client) downloadBlob(ctx context.Context, path string, w io.Writer, what string) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", what, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, readStatusError(resp)
	}
	return io.Copy(w, resp.Body)
}

// KnowledgeImport uploads a replacement knowledge-base workbook.
func (c *Client) KnowledgeImport(ctx context.Context, workbookPath string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	f, err := os.Open(workbookPath)
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	part, err := mw.CreateFormFile("knowledge_file", filepath.Base(workbookPath))
	if err != nil {
		return fmt.Errorf("creating upload part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying workbook: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalizing upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/knowledge/", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readStatusError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
