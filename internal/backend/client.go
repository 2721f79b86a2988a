// Package backend is a typed client for the diabetes prediction API.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"diabetes-console/internal/supervisor"
)

// API paths.
const (
	PathRoot    = "/"
	PathLogin   = "/login"
	PathExtract = "/classical/extract-patient-data"
	PathHistory = "/classical/get-patient-data"
)

const (
	maxErrorBody   = 1 << 20
	maxSuccessBody = 32 << 20
)

// Client talks to the prediction API at a fixed origin.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
	Metrics *supervisor.Metrics
	Logger  *slog.Logger
}

// NewClient constructs a client for base. A zero timeout means requests
// wait as long as their context allows.
func NewClient(base string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", base)
	}
	return &Client{
		BaseURL: u,
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, PathLogin, "", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	doc, err := c.doJSON(req, "login")
	if err != nil {
		return "", err
	}
	tok := doc.Get("access_token")
	if tok.Type != gjson.String || tok.Str == "" {
		return "", ErrNoToken
	}
	return tok.Str, nil
}

// ExtractPatientData uploads a document and returns the fields the API
// extracted from it.
func (c *Client) ExtractPatientData(ctx context.Context, token, filename string, content io.Reader) (Record, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, PathExtract, token, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	doc, err := c.doJSON(req, "extract")
	if err != nil {
		return nil, err
	}
	data := doc.Get("extracted_data")
	if !data.IsObject() {
		return nil, fmt.Errorf("extract: extracted_data is not an object")
	}
	return recordFrom(data), nil
}

// Predict runs model against the data last extracted for the token's user.
func (c *Client) Predict(ctx context.Context, token, model string) (Prediction, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/"+url.PathEscape(model)+"/predict", token, nil)
	if err != nil {
		return Prediction{}, err
	}

	doc, err := c.doJSON(req, "predict")
	if err != nil {
		return Prediction{}, err
	}
	return predictionFrom(doc), nil
}

// PatientHistory returns the stored records of the token's user in the
// order the API sent them.
func (c *Client) PatientHistory(ctx context.Context, token string) ([]Record, error) {
	req, err := c.newRequest(ctx, http.MethodGet, PathHistory, token, nil)
	if err != nil {
		return nil, err
	}

	doc, err := c.doJSON(req, "history")
	if err != nil {
		return nil, err
	}
	data := doc.Get("extracted_data")
	if !data.IsArray() {
		return nil, fmt.Errorf("history: extracted_data is not a list")
	}

	records := []Record{}
	for _, item := range data.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("history: record is not an object")
		}
		records = append(records, recordFrom(item))
	}
	return records, nil
}

// Ping probes the API root. Any 2xx or 3xx answer counts as healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, PathRoot, "", nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.record("ping", supervisor.CallNetworkError, start)
		return fmt.Errorf("ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		c.record("ping", supervisor.CallOK, start)
		return nil
	}
	c.record("ping", supervisor.CallHTTPError, start)
	return fmt.Errorf("ping: status code %d", resp.StatusCode)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	u := c.BaseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doJSON sends req and parses a 2xx JSON body. Non-2xx answers become a
// *StatusError carrying the (capped) body.
func (c *Client) doJSON(req *http.Request, endpoint string) (gjson.Result, error) {
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.record(endpoint, supervisor.CallNetworkError, start)
		return gjson.Result{}, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := ioReadAllLimit(resp.Body, maxErrorBody)
		status := supervisor.CallHTTPError
		if resp.StatusCode == http.StatusUnauthorized {
			status = supervisor.CallUnauthorized
		}
		c.record(endpoint, status, start)
		return gjson.Result{}, &StatusError{Endpoint: req.URL.Path, Code: resp.StatusCode, Body: string(buf)}
	}

	buf, err := ioReadAllLimit(resp.Body, maxSuccessBody)
	if err != nil {
		c.record(endpoint, supervisor.CallNetworkError, start)
		return gjson.Result{}, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if len(buf) == maxSuccessBody || !gjson.ValidBytes(buf) {
		c.record(endpoint, supervisor.CallDecodeError, start)
		return gjson.Result{}, fmt.Errorf("%s: %w", endpoint, errInvalidJSON)
	}

	c.record(endpoint, supervisor.CallOK, start)
	return gjson.ParseBytes(buf), nil
}

var errInvalidJSON = errors.New("response is not valid JSON")

func (c *Client) record(endpoint string, status supervisor.CallStatus, start time.Time) {
	d := time.Since(start)
	c.Metrics.RecordBackendCall(endpoint, status, d)
	if c.Logger != nil {
		c.Logger.Debug("backend call", "endpoint", endpoint, "status", string(status), "duration", d)
	}
}

func ioReadAllLimit(r io.Reader, max int64) ([]byte, error) {
	buf := &bytes.Buffer{}
	_, err := io.CopyN(buf, r, max+1)
	if err != nil && err != io.EOF {
		return nil, err
	}
	b := buf.Bytes()
	if int64(len(b)) > max {
		return b[:max], nil
	}
	return b, nil
}
