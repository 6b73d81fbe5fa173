// Package search provides hybrid (lexical + vector) employee profile search
// backed by a RediSearch index.
package search

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// contentExcerptLimit caps how much profile text leaves the search boundary.
const contentExcerptLimit = 500

// Field names in the employee profile index.
const (
	fieldEmployeeName  = "employee_name"
	fieldEmployeeAlias = "employee_alias"
	fieldContent       = "content"
	fieldSkills        = "skills"
	fieldTools         = "tools"
	fieldTitle         = "title"
	fieldLocation      = "location"
	fieldYears         = "years_of_experience"
	fieldVector        = "content_vector"
	fieldVectorScore   = "vector_score"
)

// Result is one matched employee profile. It is the typed boundary record for
// raw index documents; nothing downstream sees untyped field maps. Score is
// the raw index relevance on a source-defined scale; callers normalize it
// against the batch maximum.
type Result struct {
	ID                string   `json:"id"`
	EmployeeName      string   `json:"employee_name"`
	EmployeeAlias     string   `json:"employee_alias"`
	Content           string   `json:"content"`
	Skills            []string `json:"skills"`
	Tools             []string `json:"tools"`
	Title             string   `json:"title"`
	Location          string   `json:"location"`
	YearsOfExperience float64  `json:"years_of_experience"`
	Score             float64  `json:"score"`
}

// Searcher is the hybrid search collaborator contract.
type Searcher interface {
	HybridSearch(ctx context.Context, queryText string, queryVector []float32, top int) ([]Result, error)
	CheckConnection(ctx context.Context) error
}

// Client runs hybrid queries against a RediSearch employee index.
type Client struct {
	rdb       *redis.Client
	indexName string
}

// Config holds the Redis search connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	IndexName string
}

// NewClient creates a search client for the configured index.
func NewClient(cfg Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{rdb: rdb, indexName: cfg.IndexName}
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HybridSearch combines a lexical clause over the profile content with a KNN
// vector clause, returning at most top results ordered by vector distance.
func (c *Client) HybridSearch(ctx context.Context, queryText string, queryVector []float32, top int) ([]Result, error) {
	if top <= 0 {
		top = 10
	}

	queryStr := c.buildQuery(queryText, top)
	vectorBytes, err := encodeVector(queryVector)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query vector: %w", err)
	}

	raw, err := c.rdb.Do(ctx, "FT.SEARCH", c.indexName, queryStr,
		"PARAMS", "2", "query_vector", vectorBytes,
		"RETURN", "9",
		fieldEmployeeName, fieldEmployeeAlias, fieldContent, fieldSkills,
		fieldTools, fieldTitle, fieldLocation, fieldYears, fieldVectorScore,
		"SORTBY", fieldVectorScore,
		"LIMIT", "0", strconv.Itoa(top),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}

	return parseSearchReply(raw)
}

// CheckConnection verifies the index is reachable.
func (c *Client) CheckConnection(ctx context.Context) error {
	if _, err := c.rdb.Do(ctx, "FT.INFO", c.indexName).Result(); err != nil {
		return fmt.Errorf("index %s unavailable: %w", c.indexName, err)
	}
	return nil
}

// buildQuery renders the hybrid query string. An empty query text degrades to
// a pure KNN query over the whole index.
func (c *Client) buildQuery(queryText string, top int) string {
	lexical := "*"
	terms := strings.Fields(escapeQueryText(queryText))
	if len(terms) > 0 {
		lexical = fmt.Sprintf("(@%s:(%s))", fieldContent, strings.Join(terms, "|"))
	}
	return fmt.Sprintf("%s=>[KNN %d @%s $query_vector AS %s]", lexical, top, fieldVector, fieldVectorScore)
}

// escapeQueryText strips RediSearch query syntax from user terms.
func escapeQueryText(s string) string {
	replacer := strings.NewReplacer(
		"@", " ", "{", " ", "}", " ", "(", " ", ")", " ", "|", " ",
		"-", " ", "=", " ", ">", " ", "<", " ", "\"", " ", "'", " ",
		"~", " ", "*", " ", "[", " ", "]", " ", ":", " ", ";", " ",
	)
	return replacer.Replace(s)
}

// encodeVector serializes a float32 vector to the little-endian byte layout
// RediSearch expects for vector params.
func encodeVector(vector []float32) ([]byte, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector cannot be empty")
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseSearchReply decodes the FT.SEARCH array reply: a count followed by
// alternating document IDs and field/value arrays.
func parseSearchReply(raw any) ([]Result, error) {
	values, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH reply type %T", raw)
	}
	if len(values) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, (len(values)-1)/2)
	for i := 1; i+1 < len(values); i += 2 {
		docID, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]any)
		if !ok {
			continue
		}
		results = append(results, parseDocument(docID, fields))
	}
	return results, nil
}

// parseDocument maps one field/value array onto the typed Result record.
func parseDocument(docID string, fields []any) Result {
	r := Result{ID: docID}
	for i := 0; i+1 < len(fields); i += 2 {
		name, _ := fields[i].(string)
		value, _ := fields[i+1].(string)
		switch name {
		case fieldEmployeeName:
			r.EmployeeName = value
		case fieldEmployeeAlias:
			r.EmployeeAlias = value
		case fieldContent:
			r.Content = truncate(value, contentExcerptLimit)
		case fieldSkills:
			r.Skills = parseStringList(value)
		case fieldTools:
			r.Tools = parseStringList(value)
		case fieldTitle:
			r.Title = value
		case fieldLocation:
			r.Location = value
		case fieldYears:
			r.YearsOfExperience, _ = strconv.ParseFloat(value, 64)
		case fieldVectorScore:
			// Cosine distance from KNN; report similarity so that higher
			// scores mean better matches.
			if distance, err := strconv.ParseFloat(value, 64); err == nil {
				r.Score = math.Max(0, 1.0-distance)
			}
		}
	}
	return r
}

// parseStringList accepts either a JSON array or a comma-separated list.
func parseStringList(value string) []string {
	if value == "" {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(value), "[") {
		var items []string
		if err := json.Unmarshal([]byte(value), &items); err == nil {
			return items
		}
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
