// Package pms provides a client for the practice-management system — the
// authoritative system of record the pipeline checks claims against.
package pms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/callaudit/internal/resilience"
)

// Status discriminates business-level lookup outcomes. Not-found is a
// normal result, never an error.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

// Patient is a person record in the practice-management system.
type Patient struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	DOB       string `json:"dob,omitempty"`
}

// Name returns the patient's display name, preferring the explicit
// full-name field.
func (p Patient) Name() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Appointment is a booked appointment in the practice-management system.
type Appointment struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Status    string `json:"status,omitempty"`
}

// LookupResult is the response to a patient lookup.
type LookupResult struct {
	Status   Status    `json:"status"`
	Patients []Patient `json:"records"`
}

// AppointmentsResult is the response to a patient-appointments lookup.
type AppointmentsResult struct {
	Status       Status        `json:"status"`
	Appointments []Appointment `json:"records"`
}

// Client defines the system-of-record operations used by the verifier.
type Client interface {
	// LookupPatient fetches a patient record by identifier.
	LookupPatient(ctx context.Context, patientID string) (*LookupResult, error)
	// LookupPatientAppointments fetches all appointments for a patient.
	LookupPatientAppointments(ctx context.Context, patientID string) (*AppointmentsResult, error)
}

// Option configures the PMS client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the request rate ceiling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// WithRetryConfig overrides the retry behavior for transient failures.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a new practice-management-system client. The upstream
// enforces a request-rate ceiling, so all calls go through a limiter.
func NewClient(apiKey, baseURL string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(2, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("pms", "lookup")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) LookupPatient(ctx context.Context, patientID string) (*LookupResult, error) {
	var out LookupResult
	if err := c.get(ctx, fmt.Sprintf("/patients/%s", patientID), &out); err != nil {
		if isNotFound(err) {
			return &LookupResult{Status: StatusNotFound}, nil
		}
		return nil, eris.Wrapf(err, "pms: lookup patient %s", patientID)
	}
	if out.Status == "" {
		out.Status = StatusFound
	}
	return &out, nil
}

func (c *httpClient) LookupPatientAppointments(ctx context.Context, patientID string) (*AppointmentsResult, error) {
	var out AppointmentsResult
	if err := c.get(ctx, fmt.Sprintf("/patients/%s/appointments", patientID), &out); err != nil {
		if isNotFound(err) {
			return &AppointmentsResult{Status: StatusNotFound}, nil
		}
		return nil, eris.Wrapf(err, "pms: lookup appointments for %s", patientID)
	}
	if out.Status == "" {
		out.Status = StatusFound
	}
	return &out, nil
}

// notFoundError marks a business-level 404 so callers can map it to
// StatusNotFound instead of a failure.
type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return "pms: not found: " + e.path
}

func isNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.getOnce(ctx, path)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "decode response for %s", path)
	}
	return nil
}

func (c *httpClient) getOnce(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrapf(err, "read response for %s", path)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &notFoundError{path: path}
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("GET %s: status %d", path, resp.StatusCode),
			resp.StatusCode,
		)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	return body, nil
}
