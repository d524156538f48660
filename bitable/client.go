// Package bitable reads Lark/Feishu Bitable records through the open platform
// SDK: get one record, batch get by id and filtered list.
package bitable

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkbitable "github.com/larksuite/oapi-sdk-go/v3/service/bitable/v1"

	"pxk/model"
)

var DefaultBaseURL = lark.FeishuBaseUrl

const (
	// MaxBatchSize is the largest id list accepted by records/batch_get.
	MaxBatchSize = 100
	// MaxPageSize is the largest page the list call returns.
	MaxPageSize = 100

	codeRecordNotFound = 1254043
)

var ErrRecordNotFound = errors.New("bitable: record not found")

// APIError is a non-zero "code" answer from the open platform.
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitable %s: code=%d msg=%q", e.Op, e.Code, e.Msg)
}

func apiError(op string, code int, msg string) error {
	apiErr := &APIError{Op: op, Code: code, Msg: msg}
	if code == codeRecordNotFound {
		return fmt.Errorf("%w: %v", ErrRecordNotFound, apiErr)
	}
	return apiErr
}

// Options configures a Client. AppToken is the base (app) token shared by both tables.
type Options struct {
	BaseURL    string
	AppID      string
	AppSecret  string
	AppToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is safe for concurrent use. The SDK fetches and caches the tenant
// access token and refreshes it when the platform reports it invalid.
type Client struct {
	lark     *lark.Client
	appToken string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	larkOpts := []lark.ClientOptionFunc{
		lark.WithOpenBaseUrl(base),
		lark.WithLogger(stdLogger{}),
		lark.WithLogLevel(larkcore.LogLevelWarn),
	}
	if opts.Timeout > 0 {
		larkOpts = append(larkOpts, lark.WithReqTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		larkOpts = append(larkOpts, lark.WithHttpClient(opts.HTTPClient))
	}
	return &Client{
		lark:     lark.NewClient(opts.AppID, opts.AppSecret, larkOpts...),
		appToken: opts.AppToken,
	}
}

// GetRecord fetches one record by id.
func (c *Client) GetRecord(ctx context.Context, tableID, recordID string) (model.Record, error) {
	req := larkbitable.NewGetAppTableRecordReqBuilder().
		AppToken(c.appToken).
		TableId(tableID).
		RecordId(recordID).
		Build()
	resp, err := c.lark.Bitable.V1.AppTableRecord.Get(ctx, req)
	if err != nil {
		return model.Record{}, fmt.Errorf("get_record: %w", err)
	}
	if !resp.Success() {
		return model.Record{}, apiError("get_record", resp.Code, resp.Msg)
	}
	if resp.Data == nil || resp.Data.Record == nil {
		return model.Record{}, ErrRecordNotFound
	}
	return toRecord(resp.Data.Record), nil
}

// BatchGetRecords fetches up to MaxBatchSize records. Ids the service does not
// return are simply absent from the result.
func (c *Client) BatchGetRecords(ctx context.Context, tableID string, ids []string) ([]model.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("batch_get: %d ids exceeds limit of %d", len(ids), MaxBatchSize)
	}
	req := larkbitable.NewBatchGetAppTableRecordReqBuilder().
		AppToken(c.appToken).
		TableId(tableID).
		Body(larkbitable.NewBatchGetAppTableRecordReqBodyBuilder().
			RecordIds(ids).
			Build()).
		Build()
	resp, err := c.lark.Bitable.V1.AppTableRecord.BatchGet(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("batch_get: %w", err)
	}
	if !resp.Success() {
		return nil, apiError("batch_get", resp.Code, resp.Msg)
	}
	if resp.Data == nil {
		return nil, nil
	}
	return toRecords(resp.Data.Records), nil
}

// ListRecords returns the first page of records matching filter.
// Further pages are not requested.
func (c *Client) ListRecords(ctx context.Context, tableID, filter string, pageSize int) ([]model.Record, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	b := larkbitable.NewListAppTableRecordReqBuilder().
		AppToken(c.appToken).
		TableId(tableID).
		PageSize(pageSize)
	if filter != "" {
		b = b.Filter(filter)
	}
	resp, err := c.lark.Bitable.V1.AppTableRecord.List(ctx, b.Build())
	if err != nil {
		return nil, fmt.Errorf("list_records: %w", err)
	}
	if !resp.Success() {
		return nil, apiError("list_records", resp.Code, resp.Msg)
	}
	if resp.Data == nil {
		return nil, nil
	}
	return toRecords(resp.Data.Items), nil
}

func toRecord(rec *larkbitable.AppTableRecord) model.Record {
	out := model.Record{Fields: rec.Fields}
	if rec.RecordId != nil {
		out.RecordID = *rec.RecordId
	}
	return out
}

func toRecords(recs []*larkbitable.AppTableRecord) []model.Record {
	out := make([]model.Record, 0, len(recs))
	for _, rec := range recs {
		if rec != nil {
			out = append(out, toRecord(rec))
		}
	}
	return out
}

// Table binds the client to one table id.
func (c *Client) Table(tableID string) *Table {
	return &Table{client: c, tableID: tableID}
}

// Table exposes the narrow fetch operations used by the print flow.
type Table struct {
	client  *Client
	tableID string
}

func (t *Table) FetchOne(ctx context.Context, recordID string) (model.Fields, error) {
	rec, err := t.client.GetRecord(ctx, t.tableID, recordID)
	if err != nil {
		return nil, err
	}
	return rec.Fields, nil
}

func (t *Table) FetchBatch(ctx context.Context, ids []string) ([]model.Record, error) {
	return t.client.BatchGetRecords(ctx, t.tableID, ids)
}

func (t *Table) FetchFiltered(ctx context.Context, filter string, pageSize int) ([]model.Record, error) {
	return t.client.ListRecords(ctx, t.tableID, filter, pageSize)
}

// EqualsFilter builds `CurrentValue.[field]="value"` with quotes and backslashes escaped.
func EqualsFilter(field, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return fmt.Sprintf(`CurrentValue.[%s]="%s"`, field, escaped)
}

// stdLogger routes SDK logs to the standard logger.
type stdLogger struct{}

func (stdLogger) Debug(ctx context.Context, args ...interface{}) {
	log.Printf("DEBUG: lark: %s", fmt.Sprint(args...))
}

func (stdLogger) Info(ctx context.Context, args ...interface{}) {
	log.Printf("INFO: lark: %s", fmt.Sprint(args...))
}

func (stdLogger) Warn(ctx context.Context, args ...interface{}) {
	log.Printf("WARN: lark: %s", fmt.Sprint(args...))
}

func (stdLogger) Error(ctx context.Context, args ...interface{}) {
	log.Printf("ERROR: lark: %s", fmt.Sprint(args...))
}
