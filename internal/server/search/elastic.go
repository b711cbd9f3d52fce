package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticIndex implements Index over an Elasticsearch cluster.
type ElasticIndex struct {
	es     *elasticsearch.Client
	name   string
	logger logging.Logger
}

// NewElasticIndex connects a client to the node at url. No request is made
// until the first call.
func NewElasticIndex(url, name string, logger logging.Logger) (*ElasticIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("%w: new client: %w", common.ErrIndexQuery, err)
	}
	return &ElasticIndex{es: es, name: name, logger: logger.With("module", "search")}, nil
}

func indexError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrIndexQuery, op, err)
}

// statusError turns a non-2xx response into an error carrying the body.
func statusError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%w: %s: status %d: %s", common.ErrIndexQuery, op, res.StatusCode, strings.TrimSpace(string(body)))
}

// EnsureIndex checks for the index and creates it with Mapping when absent.
func (x *ElasticIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.name}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return indexError("index exists", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		x.logger.Debug(ctx, "index exists", "index", x.name)
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: index exists: status %d", common.ErrIndexQuery, res.StatusCode)
	}

	body, err := json.Marshal(Mapping())
	if err != nil {
		return indexError("encode mapping", err)
	}

	res, err = x.es.Indices.Create(x.name,
		x.es.Indices.Create.WithContext(ctx),
		x.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return indexError("create index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err := statusError("create index", res)
		// lost a creation race with another instance
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return err
	}

	x.logger.Info(ctx, "created index", "index", x.name)
	return nil
}

type bulkAction struct {
	ID string `json:"_id"`
}

type bulkItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

func encodeBulk(ops []BulkOp) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, op := range ops {
		if err := enc.Encode(map[string]bulkAction{op.Kind.String(): {ID: op.ID}}); err != nil {
			return nil, err
		}
		if op.Kind == OpIndex {
			if op.Record == nil {
				return nil, fmt.Errorf("index op %s without document", op.ID)
			}
			if err := enc.Encode(op.Record); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Bulk sends ops as one _bulk request. Deleting a document that is already
// gone counts as success.
func (x *ElasticIndex) Bulk(ctx context.Context, ops []BulkOp) error {
	if len(ops) == 0 {
		return nil
	}

	body, err := encodeBulk(ops)
	if err != nil {
		return indexError("encode bulk", err)
	}

	res, err := x.es.Bulk(bytes.NewReader(body),
		x.es.Bulk.WithContext(ctx),
		x.es.Bulk.WithIndex(x.name),
	)
	if err != nil {
		return indexError("bulk", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return statusError("bulk", res)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return indexError("decode bulk response", err)
	}

	var failed []string
	for _, item := range parsed.Items {
		for action, result := range item {
			if result.Error != nil {
				failed = append(failed, fmt.Sprintf("%s %s: %s", action, result.ID, result.Error.Reason))
			}
		}
	}
	if parsed.Errors || len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d failed: %s", common.ErrIndexPartial, len(failed), len(ops), strings.Join(failed, "; "))
	}
	return nil
}

type searchResponse struct {
	Hits *struct {
		Total *struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// phraseQuery quotes term for simple_query_string.
func phraseQuery(term string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"simple_query_string": map[string]any{
				"query":  `"` + phraseEscaper.Replace(term) + `"`,
				"fields": []string{"title"},
			},
		},
	}
}

// Search runs a title phrase query with offset paging.
func (x *ElasticIndex) Search(ctx context.Context, term string, from, size int) (*Result, error) {
	query, err := json.Marshal(phraseQuery(term))
	if err != nil {
		return nil, indexError("encode query", err)
	}
	x.logger.Debug(ctx, "search query", "query", string(query), "from", from, "size", size)

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.name),
		x.es.Search.WithBody(bytes.NewReader(query)),
		x.es.Search.WithFrom(from),
		x.es.Search.WithSize(size),
		x.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, indexError("search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, statusError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, indexError("decode search response", err)
	}
	if parsed.Hits == nil || parsed.Hits.Total == nil {
		return nil, fmt.Errorf("%w: search response without hits.total", common.ErrIndexQuery)
	}

	result := &Result{Total: parsed.Hits.Total.Value, Hits: make([]RawHit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		result.Hits = append(result.Hits, RawHit{ID: h.ID, Source: h.Source})
	}
	return result, nil
}
