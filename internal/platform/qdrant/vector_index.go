package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	"github.com/yungbote/docqa-backend/internal/platform/ctxutil"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const (
	maxErrorBodyBytes = 1024
	maxResponseBytes  = 32 << 20
)

// VectorIndex stores chunk vectors with their payload and answers
// nearest-neighbour queries against them.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []knowledge.Chunk, embeddings [][]float32) error
	Search(ctx context.Context, query []float32, topK int, selectedText string) ([]knowledge.RetrievalResult, error)
	GetByID(ctx context.Context, chunkID string) (knowledge.Chunk, error)
	Delete(ctx context.Context, chunkIDs []string) error
	DeleteDocument(ctx context.Context, documentID string, keep []string) error
	Count(ctx context.Context) (int, error)
	Ready(ctx context.Context) error
}

type vectorIndex struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	distance string
	http     *http.Client

	ensureMu sync.Mutex
	ensured  bool
	locks    *keyedLock
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantScoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload json.RawMessage `json:"payload"`
}

type qdrantCollectionInfo struct {
	Config struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

// NewVectorIndex builds the adapter without contacting Qdrant. The collection
// is checked or created on first use.
func NewVectorIndex(log *logger.Logger, cfg Config) (VectorIndex, error) {
	return newVectorIndex(log, cfg, nil)
}

func newVectorIndex(log *logger.Logger, cfg Config, client *http.Client) (*vectorIndex, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg, true); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	s := &vectorIndex{
		log:      log.With("service", "QdrantVectorIndex"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		distance: canonicalDistance(cfg.Distance),
		http:     client,
		locks:    newKeyedLock(),
	}
	log.Info(
		"Qdrant vector index configured",
		"provider", "qdrant",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"vector_dim", cfg.VectorDim,
		"distance", s.distance,
	)
	return s, nil
}

// EnsureCollection creates the collection and its content text index when
// missing. An existing collection with a different vector size is a
// configuration error. Success is remembered; failures are retried on the
// next call.
func (s *vectorIndex) EnsureCollection(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("qdrant vector index not initialized")
	}
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.ensured {
		return nil
	}
	const op = "ensure_collection"

	var info qdrantCollectionInfo
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &info)
	switch {
	case err == nil:
		size := info.Config.Params.Vectors.Size
		if size != 0 && size != s.cfg.VectorDim {
			return &OperationError{
				Code:      OperationErrorDimensionMismatch,
				Operation: op,
				Message: fmt.Sprintf(
					"qdrant collection %q vector size mismatch: expected=%d actual=%d",
					s.cfg.Collection,
					s.cfg.VectorDim,
					size,
				),
			}
		}
		if d := canonicalDistance(info.Config.Params.Vectors.Distance); d != "" {
			s.distance = d
		}
	case errors.Is(err, errCollectionMissing):
		create := map[string]any{
			"vectors": map[string]any{
				"size":     s.cfg.VectorDim,
				"distance": s.distance,
			},
		}
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath(""), create, nil); err != nil {
			return err
		}
		index := map[string]any{
			"field_name": payloadContentKey,
			"field_schema": map[string]any{
				"type":      "text",
				"tokenizer": "word",
				"lowercase": true,
			},
		}
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/index?wait=true"), index, nil); err != nil {
			return err
		}
		keyword := map[string]any{"field_name": payloadDocumentIDKey, "field_schema": "keyword"}
		if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/index?wait=true"), keyword, nil); err != nil {
			return err
		}
		s.log.Info("Qdrant collection created", "collection", s.cfg.Collection, "vector_dim", s.cfg.VectorDim, "distance", s.distance)
	default:
		return err
	}
	s.ensured = true
	return nil
}

func (s *vectorIndex) Upsert(ctx context.Context, chunks []knowledge.Chunk, embeddings [][]float32) error {
	if s == nil {
		return fmt.Errorf("qdrant vector index not initialized")
	}
	const op = "upsert"
	if len(chunks) != len(embeddings) {
		return opErr(op, OperationErrorValidation, fmt.Sprintf("chunks/embeddings length mismatch: chunks=%d embeddings=%d", len(chunks), len(embeddings)), nil)
	}
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, 0, len(chunks))
	points := make([]map[string]any, 0, len(chunks))
	for i, c := range chunks {
		id := strings.TrimSpace(c.ChunkID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "chunk id is required", nil)
		}
		if _, err := uuid.Parse(id); err != nil {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("chunk id %q is not a uuid", id), err)
		}
		if err := s.checkDim(op, len(embeddings[i])); err != nil {
			return err
		}
		ids = append(ids, id)
		points = append(points, map[string]any{
			"id":      id,
			"vector":  embeddings[i],
			"payload": payloadFromChunk(c),
		})
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	keys := append([]string(nil), ids...)
	for _, c := range chunks {
		if !isBlank(c.DocumentID) {
			keys = append(keys, documentLockKey(c.DocumentID))
		}
	}
	unlock := s.locks.lock(keys)
	defer unlock()

	req := map[string]any{"points": points}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), req, nil)
}

func (s *vectorIndex) Search(ctx context.Context, query []float32, topK int, selectedText string) ([]knowledge.RetrievalResult, error) {
	if s == nil {
		return nil, fmt.Errorf("qdrant vector index not initialized")
	}
	const op = "search"
	if len(query) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if err := s.checkDim(op, len(query)); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       query,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := selectionFilter(selectedText); !f.empty() {
		req["filter"] = f.asMap()
	}

	var points []qdrantScoredPoint
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &points); err != nil {
		return nil, err
	}

	out := make([]knowledge.RetrievalResult, 0, len(points))
	for _, p := range points {
		c, err := decodeChunkPayload(p.Payload)
		if err != nil {
			return nil, opErr(op, OperationErrorDecodeFailed, fmt.Sprintf("point %s has unexpected payload", decodePointID(p.ID)), err)
		}
		out = append(out, knowledge.RetrievalResult{
			Chunk:           c,
			SimilarityScore: s.normalizeScore(p.Score),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SimilarityScore > out[j].SimilarityScore
	})
	return out, nil
}

func (s *vectorIndex) GetByID(ctx context.Context, chunkID string) (knowledge.Chunk, error) {
	if s == nil {
		return knowledge.Chunk{}, fmt.Errorf("qdrant vector index not initialized")
	}
	const op = "get"
	id := strings.TrimSpace(chunkID)
	if _, err := uuid.Parse(id); err != nil {
		return knowledge.Chunk{}, &OperationError{Code: OperationErrorNotFound, Operation: op, Message: fmt.Sprintf("chunk %q not found", chunkID)}
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return knowledge.Chunk{}, err
	}

	var point struct {
		ID      json.RawMessage `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath("/points/"+id), nil, &point)
	if err != nil {
		var oe *OperationError
		if errors.As(err, &oe) && oe.StatusCode == http.StatusNotFound {
			return knowledge.Chunk{}, &OperationError{Code: OperationErrorNotFound, Operation: op, StatusCode: oe.StatusCode, Message: fmt.Sprintf("chunk %q not found", id)}
		}
		return knowledge.Chunk{}, err
	}
	c, err := decodeChunkPayload(point.Payload)
	if err != nil {
		return knowledge.Chunk{}, opErr(op, OperationErrorDecodeFailed, fmt.Sprintf("point %s has unexpected payload", id), err)
	}
	return c, nil
}

func (s *vectorIndex) Delete(ctx context.Context, chunkIDs []string) error {
	if s == nil {
		return nil
	}
	const op = "delete"
	ids := make([]string, 0, len(chunkIDs))
	seen := make(map[string]struct{}, len(chunkIDs))
	for _, raw := range chunkIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	unlock := s.locks.lock(ids)
	defer unlock()

	req := map[string]any{"points": ids}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil)
}

// DeleteDocument removes the points of a document whose ids are not in keep.
// It holds the document key, so it never interleaves with an upsert of the
// same document's chunks.
func (s *vectorIndex) DeleteDocument(ctx context.Context, documentID string, keep []string) error {
	if s == nil {
		return nil
	}
	const op = "delete_document"
	if isBlank(documentID) {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}
	ids := make([]string, 0, len(keep))
	for _, raw := range keep {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("chunk id %q is not a uuid", id), err)
		}
		ids = append(ids, id)
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	unlock := s.locks.lock(append([]string{documentLockKey(documentID)}, ids...))
	defer unlock()

	req := map[string]any{"filter": documentFilter(documentID, ids).asMap()}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil)
}

func documentLockKey(documentID string) string { return "document:" + strings.TrimSpace(documentID) }

func (s *vectorIndex) Count(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("qdrant vector index not initialized")
	}
	const op = "count"
	if err := s.EnsureCollection(ctx); err != nil {
		return 0, err
	}
	var result struct {
		Count int `json:"count"`
	}
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/count"), map[string]any{"exact": true}, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// Ready reports whether the Qdrant node answers its readiness probe.
func (s *vectorIndex) Ready(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("qdrant vector index not initialized")
	}
	const op = "ready"
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	s.authorize(req)
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

var errCollectionMissing = errors.New("qdrant collection missing")

func (s *vectorIndex) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound && method == http.MethodGet && path == s.collectionPath("") {
			return &OperationError{
				Code:       OperationErrorNotFound,
				Operation:  op,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("collection %q not found", s.cfg.Collection),
				Cause:      errCollectionMissing,
			}
		}
		code := OperationErrorQueryFailed
		if resp.StatusCode == http.StatusBadRequest && isDimensionError(raw) {
			code = OperationErrorDimensionMismatch
		}
		return &OperationError{
			Code:       code,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func (s *vectorIndex) authorize(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
}

func (s *vectorIndex) checkDim(op string, got int) error {
	if got == s.cfg.VectorDim {
		return nil
	}
	return &OperationError{
		Code:      OperationErrorDimensionMismatch,
		Operation: op,
		Message:   fmt.Sprintf("vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, got),
	}
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func isDimensionError(body []byte) bool {
	msg := strings.ToLower(string(body))
	return strings.Contains(msg, "vector dimension error") || strings.Contains(msg, "wrong input: vector")
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func (s *vectorIndex) collectionPath(suffix string) string {
	path := "/collections/" + s.cfg.Collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func (s *vectorIndex) normalizeScore(score float64) float64 {
	switch s.distance {
	case "Euclid", "Manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}
