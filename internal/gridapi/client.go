package gridapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/internal/control"
	"github.com/rowsync/rowsync/rowtypes"
)

// defaultTimeout applies to each HTTP request when the caller sets none.
const defaultTimeout = 60 * time.Second

// Business error codes the service reports inside the response envelope.
const (
	// codeOversized marks a request body the service refuses to process
	// because it is too large. Resolved by bisection, not retry.
	codeOversized = 90227

	codeInvalidParam     = 1254000
	codeWrongRequestJSON = 1254003
	codeForbidden        = 1254004
	codeQuotaExceeded    = 1254005
	codeTableNotFound    = 1254040

	codeTooManyRequests = 1254290
	codeDataNotReady    = 1254607
	codeInternalError   = 1254002
	codeServiceBusy     = 1254001
	codeWriteConflict   = 1254006
)

// transientCodes map to retryable sentinels.
var transientCodes = map[int]error{
	codeTooManyRequests: errors.ErrRateLimited,
	codeDataNotReady:    errors.ErrServerUnavailable,
	codeInternalError:   errors.ErrServerUnavailable,
	codeServiceBusy:     errors.ErrServerUnavailable,
	codeWriteConflict:   errors.ErrServerUnavailable,
}

// permanentCodes map to non-retryable sentinels.
var permanentCodes = map[int]error{
	codeInvalidParam:     errors.ErrValidation,
	codeWrongRequestJSON: errors.ErrValidation,
	codeForbidden:        errors.ErrPermissionDenied,
	codeQuotaExceeded:    errors.ErrPermissionDenied,
	codeTableNotFound:    errors.ErrNotFound,
}

// envelope is the body wrapper on every response, success or failure.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Client is the HTTP implementation of API. Every request flows through the
// shared request controller, so rate limiting and retry apply uniformly
// across all callers.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	controller *control.Controller
	logger     *slog.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a grid API client. A nil httpClient gets a default with
// the standard timeout; a nil logger defaults to slog.Default().
func NewClient(baseURL string, tokens TokenProvider, controller *control.Controller, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		controller: controller,
		logger:     logger,
	}
}

// ListFields implements API. The fields endpoint is paginated like search;
// all pages are drained before returning, with the same repeated-token
// guard against a looping server.
func (c *Client) ListFields(ctx context.Context, table string) ([]Field, error) {
	const op = "list_fields"

	var fields []Field
	seen := make(map[string]struct{})
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprintf("%d", MaxSearchPageSize))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var data struct {
			Items     []Field `json:"items"`
			PageToken string  `json:"page_token"`
			HasMore   bool    `json:"has_more"`
		}
		path := fmt.Sprintf("/tables/%s/fields?%s", url.PathEscape(table), q.Encode())
		if err := c.call(ctx, op, table, http.MethodGet, path, nil, &data); err != nil {
			return nil, err
		}

		fields = append(fields, data.Items...)
		if !data.HasMore || data.PageToken == "" {
			return fields, nil
		}
		if _, dup := seen[data.PageToken]; dup {
			return nil, errors.NewTableError(op, table,
				fmt.Errorf("token %q seen twice: %w", data.PageToken, errors.ErrRepeatedPageToken))
		}
		seen[data.PageToken] = struct{}{}
		pageToken = data.PageToken
	}
}

// CreateField implements API.
func (c *Client) CreateField(ctx context.Context, table string, field Field) error {
	const op = "create_field"

	body := map[string]any{
		"field_name": field.FieldName,
		"type":       field.Type,
	}
	path := fmt.Sprintf("/tables/%s/fields", url.PathEscape(table))
	return c.call(ctx, op, table, http.MethodPost, path, body, nil)
}

// Search implements API.
func (c *Client) Search(ctx context.Context, table, pageToken string, pageSize int) (*Page, error) {
	const op = "search"

	if pageSize <= 0 || pageSize > MaxSearchPageSize {
		pageSize = MaxSearchPageSize
	}

	q := url.Values{}
	q.Set("page_size", fmt.Sprintf("%d", pageSize))
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}

	var data struct {
		Items     []rowtypes.Record `json:"items"`
		PageToken string            `json:"page_token"`
		HasMore   bool              `json:"has_more"`
		Total     int               `json:"total"`
	}
	path := fmt.Sprintf("/tables/%s/records/search?%s", url.PathEscape(table), q.Encode())
	if err := c.call(ctx, op, table, http.MethodPost, path, map[string]any{}, &data); err != nil {
		return nil, err
	}

	return &Page{
		Records:       data.Items,
		NextPageToken: data.PageToken,
		HasMore:       data.HasMore,
		Total:         data.Total,
	}, nil
}

// BatchCreate implements API. Each call carries a fresh client token so the
// service can deduplicate replays of the same batch, and skips the service's
// consistency check for throughput.
func (c *Client) BatchCreate(ctx context.Context, table string, rows []rowtypes.Row) error {
	const op = "batch_create"

	if len(rows) > MaxBatchCreate {
		return errors.NewTableError(op, table,
			fmt.Errorf("%d records exceeds limit of %d: %w", len(rows), MaxBatchCreate, errors.ErrBatchTooLarge))
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, map[string]any{"fields": row})
	}

	q := url.Values{}
	q.Set("client_token", uuid.NewString())
	q.Set("ignore_consistency_check", "true")
	path := fmt.Sprintf("/tables/%s/records/batch_create?%s", url.PathEscape(table), q.Encode())
	return c.call(ctx, op, table, http.MethodPost, path, map[string]any{"records": records}, nil)
}

// BatchUpdate implements API.
func (c *Client) BatchUpdate(ctx context.Context, table string, updates []rowtypes.RecordUpdate) error {
	const op = "batch_update"

	if len(updates) > MaxBatchUpdate {
		return errors.NewTableError(op, table,
			fmt.Errorf("%d records exceeds limit of %d: %w", len(updates), MaxBatchUpdate, errors.ErrBatchTooLarge))
	}
	if len(updates) == 0 {
		return nil
	}

	records := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		records = append(records, map[string]any{
			"record_id": u.RecordID,
			"fields":    u.Row,
		})
	}

	path := fmt.Sprintf("/tables/%s/records/batch_update", url.PathEscape(table))
	return c.call(ctx, op, table, http.MethodPost, path, map[string]any{"records": records}, nil)
}

// BatchDelete implements API.
func (c *Client) BatchDelete(ctx context.Context, table string, ids []string) error {
	const op = "batch_delete"

	if len(ids) > MaxBatchDelete {
		return errors.NewTableError(op, table,
			fmt.Errorf("%d records exceeds limit of %d: %w", len(ids), MaxBatchDelete, errors.ErrBatchTooLarge))
	}
	if len(ids) == 0 {
		return nil
	}

	path := fmt.Sprintf("/tables/%s/records/batch_delete", url.PathEscape(table))
	return c.call(ctx, op, table, http.MethodPost, path, map[string]any{"records": ids}, nil)
}

// call issues one logical API request through the controller, decoding the
// envelope's data into out when out is non-nil.
func (c *Client) call(ctx context.Context, op, table, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.NewTableError(op, table, err)
		}
	}

	err := c.controller.Execute(ctx, op, func(ctx context.Context) error {
		return c.roundTrip(ctx, method, path, payload, out)
	})
	if err != nil {
		return errors.NewTableError(op, table, err)
	}
	return nil
}

// roundTrip performs one HTTP attempt and classifies the outcome.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetch auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context cancellation is the caller's signal, not a network fault.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", errors.ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errors.ErrConnection, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: http 429", errors.ErrRateLimited)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: http %d", errors.ErrServerUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("%w: http %d: %v", errors.ErrMalformedResponse, resp.StatusCode, err)
	}

	if env.Code != 0 {
		return classifyCode(env.Code, env.Msg)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: http %d", errors.ErrServerUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: http %d: %s", errors.ErrValidation, resp.StatusCode, env.Msg)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", errors.ErrMalformedResponse, err)
		}
	}
	return nil
}

// classifyCode maps a business error code to the module's sentinel taxonomy.
// Unknown codes are treated as permanent so the retry loop never spins on a
// failure mode it does not understand.
func classifyCode(code int, msg string) error {
	if code == codeOversized {
		return fmt.Errorf("%w: code %d: %s", errors.ErrOversizedPayload, code, msg)
	}
	if sentinel, ok := transientCodes[code]; ok {
		return fmt.Errorf("%w: code %d: %s", sentinel, code, msg)
	}
	if sentinel, ok := permanentCodes[code]; ok {
		return fmt.Errorf("%w: code %d: %s", sentinel, code, msg)
	}
	return fmt.Errorf("grid: unexpected code %d: %s", code, msg)
}
