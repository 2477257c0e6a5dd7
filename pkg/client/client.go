package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/progress"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Service endpoints, relative to the configured prefix.
const (
	EndpointSessionID  = "/get_session_id"
	EndpointNewSession = "/new_session"
	EndpointUpload     = "/upload"
	EndpointImages     = "/get_images"
	EndpointReorder    = "/reorder_images"
	EndpointRemove     = "/remove_image"
	EndpointGenerate   = "/generate_gif"
	EndpointUploads    = "/uploads/"
)

const (
	// SessionHeader carries the session id on every call.
	SessionHeader = "X-Session-ID"
	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	// DefaultTimeout bounds a single call when Options.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4096
)

// Options configures an APIClient.
type Options struct {
	// BaseURL is the service root, e.g. http://localhost:5000.
	BaseURL string
	// Prefix is prepended to every endpoint path, e.g. /api.
	Prefix string
	// Timeout bounds each call; zero selects DefaultTimeout.
	Timeout time.Duration
	// StreamBodies streams multipart payloads through a pipe instead of buffering them,
	// leaving their length unknown to the transport.
	StreamBodies bool
	// HTTPClient overrides the underlying client; Timeout is ignored when set.
	HTTPClient *http.Client
	// UserAgent is sent with every request when set.
	UserAgent string
}

// APIClient talks to the service endpoints.
type APIClient struct {
	root      string
	http      *http.Client
	stream    bool
	userAgent string
}

// New creates an APIClient.
//
// Parameters:
//   - opts: Client options.
//
// Returns:
//   - *APIClient: Configured client.
func New(opts Options) *APIClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	return &APIClient{
		root:      strings.TrimRight(opts.BaseURL, "/") + normalizePrefix(opts.Prefix),
		http:      httpClient,
		stream:    opts.StreamBodies,
		userAgent: opts.UserAgent,
	}
}

// normalizePrefix returns prefix with a single leading slash and no trailing slash.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}

	return "/" + prefix
}

// escapePath escapes every segment of an uploads path, accepting both bare names and the
// /uploads/... locations returned by generation.
func escapePath(name string) string {
	name = strings.TrimPrefix(strings.TrimPrefix(name, "/"), strings.TrimPrefix(EndpointUploads, "/"))

	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}

// Root returns the base URL including the prefix.
func (c *APIClient) Root() string {
	return c.root
}

// ImageURL returns the absolute URL of an uploaded image.
func (c *APIClient) ImageURL(name string) string {
	return c.root + EndpointUploads + escapePath(name)
}

// IssueSession asks the server for the session id, presenting the current one if known.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - current: Existing session id, or empty.
//
// Returns:
//   - types.SessionID: Issued id.
//   - error: Non-nil on transport, status or payload failure.
func (c *APIClient) IssueSession(ctx context.Context, current types.SessionID) (types.SessionID, error) {
	return c.session(ctx, EndpointSessionID, current)
}

// NewSession asks the server for a fresh session.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - current: Session being abandoned, or empty.
//
// Returns:
//   - types.SessionID: New id.
//   - error: Non-nil on transport, status or payload failure.
func (c *APIClient) NewSession(ctx context.Context, current types.SessionID) (types.SessionID, error) {
	return c.session(ctx, EndpointNewSession, current)
}

func (c *APIClient) session(
	ctx context.Context,
	endpoint string,
	current types.SessionID,
) (types.SessionID, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, endpoint, current, nil, nil, &resp); err != nil {
		return "", err
	}

	if resp.SessionID == "" {
		if reason := resp.reason(); reason != "" {
			return "", &RejectedError{Endpoint: endpoint, Message: reason}
		}

		return "", fmt.Errorf("%w: %w", ErrNetworkFailure, errMissingSession)
	}

	return types.SessionID(resp.SessionID), nil
}

// Upload sends files as one multipart request with a "files" part per file.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - id: Session id.
//   - files: Files to send.
//   - report: Progress callback; may be nil.
//
// Returns:
//   - *UploadResult: Server-assigned names.
//   - error: Non-nil on failure; RejectedError when the server reports success=false.
func (c *APIClient) Upload(
	ctx context.Context,
	id types.SessionID,
	files []types.File,
	report progress.Func,
) (*UploadResult, error) {
	body, err := multipartBody(c.stream, writeFiles(files))
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, EndpointUpload, id, body, report, &resp); err != nil {
		return nil, err
	}

	if err := resp.check(EndpointUpload); err != nil {
		return nil, err
	}

	return &resp.UploadResult, nil
}

// ListImages returns the session's image names in server order.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - id: Session id.
//
// Returns:
//   - []string: Names, never nil.
//   - error: Non-nil on failure.
func (c *APIClient) ListImages(ctx context.Context, id types.SessionID) ([]string, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, EndpointImages, id, nil, nil, &resp); err != nil {
		return nil, err
	}

	switch {
	case resp.Images != nil:
		return resp.Images, nil
	case resp.Order != nil:
		return resp.Order, nil
	case resp.reason() != "":
		return nil, &RejectedError{Endpoint: EndpointImages, Message: resp.reason()}
	default:
		return []string{}, nil
	}
}

// Reorder persists a position to name mapping, encoded as JSON in the image_order field.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - id: Session id.
//   - order: 1-based position to name.
//
// Returns:
//   - error: Non-nil on failure.
func (c *APIClient) Reorder(ctx context.Context, id types.SessionID, order map[int]string) error {
	encoded, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("%w: %w", errEncodeBody, err)
	}

	body := formBody(url.Values{imageOrderField: {string(encoded)}})

	var resp result
	if err := c.do(ctx, http.MethodPost, EndpointReorder, id, body, nil, &resp); err != nil {
		return err
	}

	return resp.check(EndpointReorder)
}

// Remove deletes one image from the session.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - id: Session id.
//   - name: Image name.
//
// Returns:
//   - error: Non-nil on failure.
func (c *APIClient) Remove(ctx context.Context, id types.SessionID, name string) error {
	body := formBody(url.Values{imageNameField: {name}})

	var resp result
	if err := c.do(ctx, http.MethodPost, EndpointRemove, id, body, nil, &resp); err != nil {
		return err
	}

	return resp.check(EndpointRemove)
}

// Generate requests an animation built from the session's images.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - id: Session id.
//   - form: Generation fields.
//   - report: Progress callback; may be nil.
//
// Returns:
//   - *GenerateResult: Location of the animation.
//   - error: Non-nil on failure.
func (c *APIClient) Generate(
	ctx context.Context,
	id types.SessionID,
	form types.GenerateForm,
	report progress.Func,
) (*GenerateResult, error) {
	body, err := multipartBody(c.stream, writeGenerateForm(form))
	if err != nil {
		return nil, err
	}

	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, EndpointGenerate, id, body, report, &resp); err != nil {
		return nil, err
	}

	if err := resp.check(EndpointGenerate); err != nil {
		return nil, err
	}

	return &resp.GenerateResult, nil
}

// Fetch copies an uploaded image to w.
//
// Parameters:
//   - ctx: Context for cancellation.
//   - id: Session id.
//   - name: Image name or a path below /uploads/.
//   - w: Destination.
//
// Returns:
//   - int64: Bytes written.
//   - error: Non-nil on failure.
func (c *APIClient) Fetch(ctx context.Context, id types.SessionID, name string, w io.Writer) (int64, error) {
	endpoint := EndpointUploads + escapePath(name)

	resp, err := c.send(ctx, http.MethodGet, endpoint, id, nil, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}

	return written, nil
}

// do sends a request and decodes a 2xx JSON response into into.
func (c *APIClient) do(
	ctx context.Context,
	method, endpoint string,
	id types.SessionID,
	body *requestBody,
	report progress.Func,
	into any,
) error {
	resp, err := c.send(ctx, method, endpoint, id, body, report)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrNetworkFailure, errDecodeResponse, err)
	}

	return nil
}

// send performs the round trip and returns the response only for 2xx statuses.
func (c *APIClient) send(
	ctx context.Context,
	method, endpoint string,
	id types.SessionID,
	body *requestBody,
	report progress.Func,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = progress.NewReader(body.reader, body.length, report)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.root+endpoint, reader)
	if err != nil {
		if closer, ok := reader.(io.Closer); ok {
			_ = closer.Close()
		}

		return nil, fmt.Errorf("%w: %w", errBuildRequest, err)
	}

	requestID := uuid.NewString()

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if id != "" {
		req.Header.Set(SessionHeader, id.String())
	}

	if body != nil {
		req.Header.Set("Content-Type", body.contentType)

		if body.length >= 0 {
			req.ContentLength = body.length
		}
	}

	fields := logrus.Fields{
		"method":     method,
		"endpoint":   endpoint,
		"request_id": requestID,
		"session":    id.ShortID(),
	}
	logrus.WithFields(fields).Debug("Sending request")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logrus.WithFields(fields).WithError(err).Debug("Request failed")

		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}

	logrus.WithFields(fields).WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Received response")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()

		return nil, newStatusError(endpoint, resp)
	}

	return resp, nil
}

// newStatusError builds a StatusError carrying the server's explanation, taken from a JSON
// error/message field when present and from the raw body otherwise.
func newStatusError(endpoint string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(raw))

	var payload result
	if err := json.Unmarshal(raw, &payload); err == nil && payload.reason() != "" {
		message = payload.reason()
	}

	return &StatusError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
