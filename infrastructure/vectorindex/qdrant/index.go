package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"priorify/application/ports"
	pkgerrors "priorify/pkg/errors"
	"priorify/pkg/resilience"
)

// Payload fields written alongside every schedule vector
const (
	PayloadScheduleID = "scheduleId"
	PayloadOwnerID    = "ownerId"
	PayloadStatus     = "status"
)

const maxErrorBodyBytes = 1024

// Config holds the qdrant connection settings
type Config struct {
	URL        string
	Collection string
	VectorDim  int
	APIKey     string
	Timeout    time.Duration
}

// Observer receives the outcome of every search
type Observer interface {
	ObserveSimilaritySearch(d time.Duration, hits int, err error)
}

// Index implements ports.SimilarityIndex against the qdrant REST API
type Index struct {
	cfg      Config
	baseURL  string
	http     *http.Client
	breaker  *resilience.Breaker
	observer Observer
	logger   *zap.Logger
}

var _ ports.SimilarityIndex = (*Index)(nil)

// NewIndex creates a new qdrant index client. observer may be nil.
func NewIndex(cfg Config, observer Observer, logger *zap.Logger) (*Index, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Index{
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  resilience.NewBreaker(resilience.DefaultBreakerConfig("qdrant"), countsAgainstIndex, logger),
		observer: observer,
		logger:   logger,
	}, nil
}

type searchHit struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

// Search returns the nearest schedules of the same owner and status
func (x *Index) Search(ctx context.Context, query ports.SimilarityQuery) ([]ports.SimilarityHit, error) {
	const op = "search"
	start := time.Now()

	hits, err := x.search(ctx, query)
	if x.observer != nil {
		x.observer.ObserveSimilaritySearch(time.Since(start), len(hits), err)
	}
	if err != nil {
		x.logger.Debug("Similarity search failed",
			zap.String("op", op),
			zap.String("ownerID", query.OwnerID),
			zap.Error(err),
		)
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewExternalError("qdrant", err).WithCode(pkgerrors.CodeSimilarityIndexError)
	}
	return hits, nil
}

func (x *Index) search(ctx context.Context, query ports.SimilarityQuery) ([]ports.SimilarityHit, error) {
	const op = "search"
	if len(query.Vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if x.cfg.VectorDim > 0 && len(query.Vector) != x.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", x.cfg.VectorDim, len(query.Vector)), nil)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	must := []map[string]any{matchCondition(PayloadOwnerID, query.OwnerID)}
	if query.Status != "" {
		must = append(must, matchCondition(PayloadStatus, string(query.Status)))
	}
	req := map[string]any{
		"vector":       query.Vector,
		"limit":        limit,
		"with_payload": []string{PayloadScheduleID},
		"with_vector":  false,
		"filter":       map[string]any{"must": must},
	}
	if query.CandidatePool > 0 {
		req["params"] = map[string]any{"hnsw_ef": query.CandidatePool}
	}

	raw, err := resilience.Call(x.breaker, func() ([]searchHit, error) {
		var out []searchHit
		err := x.doJSON(ctx, op, http.MethodPost, x.collectionPath("/points/search"), req, &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	hits := make([]ports.SimilarityHit, 0, len(raw))
	for _, item := range raw {
		id := scheduleIDOf(item)
		if id == "" {
			continue
		}
		hits = append(hits, ports.SimilarityHit{ScheduleID: id, Score: item.Score})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ScheduleID < hits[j].ScheduleID
		}
		return hits[i].Score > hits[j].Score
	})
	return hits, nil
}

// Ready checks the server and that the collection matches the configured
// vector size
func (x *Index) Ready(ctx context.Context) error {
	const op = "ready"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	x.authorize(req)
	resp, err := x.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("ready check returned status=%d", resp.StatusCode)}
	}

	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := x.doJSON(ctx, op, http.MethodGet, x.collectionPath(""), nil, &info); err != nil {
		return err
	}
	if size := info.Config.Params.Vectors.Size; size != 0 && x.cfg.VectorDim > 0 && size != x.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", x.cfg.Collection, x.cfg.VectorDim, size), nil)
	}
	return nil
}

func (x *Index) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	x.authorize(req)

	resp, err := x.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode envelope failed", err)
	}
	if msg := envelopeStatusError(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode result failed", err)
	}
	return nil
}

func (x *Index) authorize(req *http.Request) {
	if x.cfg.APIKey != "" {
		req.Header.Set("api-key", x.cfg.APIKey)
	}
}

func (x *Index) collectionPath(suffix string) string {
	return "/collections/" + x.cfg.Collection + suffix
}

func matchCondition(key, value string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

// scheduleIDOf prefers the payload id and falls back to the point id
func scheduleIDOf(item searchHit) string {
	if id, ok := item.Payload[PayloadScheduleID].(string); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	var s string
	if err := json.Unmarshal(item.ID, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n int64
	if err := json.Unmarshal(item.ID, &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return ""
}

func envelopeStatusError(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(s, "ok") {
			return ""
		}
		return fmt.Sprintf("status=%q", s)
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Error != "" {
		return obj.Error
	}
	return "status=" + status
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
