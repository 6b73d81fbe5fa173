package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emposo/cvision/internal/llm"
	"github.com/emposo/cvision/internal/search"
	"github.com/emposo/cvision/internal/types"
)

type stubLLM struct {
	response string
	err      error
	system   string
	user     string
}

func (s *stubLLM) GenerateJSON(_ context.Context, system, user string, _ llm.GenerateOptions) (string, error) {
	s.system = system
	s.user = user
	return s.response, s.err
}

func (s *stubLLM) StreamContent(context.Context, string, string, llm.GenerateOptions, func(string) error) error {
	return errors.New("not implemented")
}

func (s *stubLLM) Close() error { return nil }

type stubEmbedder struct {
	vector []float32
	err    error
	text   string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.text = text
	return s.vector, s.err
}

type stubSearcher struct {
	results []search.Result
	err     error
	query   string
	top     int
}

func (s *stubSearcher) HybridSearch(_ context.Context, queryText string, _ []float32, top int) ([]search.Result, error) {
	s.query = queryText
	s.top = top
	return s.results, s.err
}

func (s *stubSearcher) CheckConnection(context.Context) error { return nil }

func newTestMatcher(client *stubLLM, embedder *stubEmbedder, searcher *stubSearcher) *Matcher {
	return NewMatcher(client, embedder, searcher, nil, nil)
}

func skillReq(name string, mandatory bool, level string) types.ExtractedSkill {
	return types.ExtractedSkill{Name: name, Category: types.SkillCategoryProgramming, Mandatory: mandatory, Level: level}
}

func TestMatch_NotInitialized(t *testing.T) {
	m := NewMatcher(nil, nil, nil, nil, nil)

	_, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestMatch_EmbeddingFailureAborts(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("quota exceeded")}
	m := newTestMatcher(&stubLLM{}, embedder, &stubSearcher{})

	_, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding failed")
}

func TestMatch_SearchFailureAborts(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("connection refused")}
	m := newTestMatcher(&stubLLM{}, &stubEmbedder{vector: []float32{0.1}}, searcher)

	_, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestMatch_EmptyResultsIsValid(t *testing.T) {
	m := newTestMatcher(&stubLLM{}, &stubEmbedder{vector: []float32{0.1}}, &stubSearcher{})

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{
		skillReq("Go", true, ""),
		skillReq("Docker", false, ""),
	}, "text")

	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Equal(t, 0, resp.TotalCandidatesSearched)
	assert.Equal(t, []string{"Go", "Docker"}, resp.QuerySkills)
}

func TestMatch_QueryUsesMandatorySkillsOnly(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	searcher := &stubSearcher{}
	m := newTestMatcher(&stubLLM{}, embedder, searcher)

	_, err := m.Match(context.Background(), []types.ExtractedSkill{
		skillReq("Go", true, ""),
		skillReq("Kubernetes", false, ""),
		skillReq("PostgreSQL", true, ""),
	}, "text")

	require.NoError(t, err)
	assert.Equal(t, "Go PostgreSQL", embedder.text)
	assert.Equal(t, "Go PostgreSQL", searcher.query)
}

func TestMatch_QueryFallsBackToAllSkills(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	m := newTestMatcher(&stubLLM{}, embedder, &stubSearcher{})

	_, err := m.Match(context.Background(), []types.ExtractedSkill{
		skillReq("Go", false, ""),
		skillReq("Kubernetes", false, ""),
	}, "text")

	require.NoError(t, err)
	assert.Equal(t, "Go Kubernetes", embedder.text)
}

func TestMatch_RetrievesTwiceTheCandidateCap(t *testing.T) {
	searcher := &stubSearcher{}
	m := newTestMatcher(&stubLLM{}, &stubEmbedder{vector: []float32{0.1}}, searcher)

	_, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.NoError(t, err)
	assert.Equal(t, 20, searcher.top)
}

func TestMatch_WeightedTotal(t *testing.T) {
	// One candidate matching everything: skill 1.0, experience 1.0 (senior at
	// 7.5 years), semantic 1.0 (batch max), availability 0.8.
	searcher := &stubSearcher{results: []search.Result{{
		EmployeeAlias:     "jdoe",
		EmployeeName:      "Jane Doe",
		Skills:            []string{"Go"},
		YearsOfExperience: 7.5,
		Score:             0.9,
	}}}
	m := newTestMatcher(&stubLLM{err: errors.New("skip explanations")}, &stubEmbedder{vector: []float32{0.1}}, searcher)

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, types.LevelSenior)}, "text")

	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)

	match := resp.Matches[0]
	assert.Equal(t, 1.0, match.Breakdown.SkillMatch)
	assert.Equal(t, 1.0, match.Breakdown.Experience)
	assert.Equal(t, 1.0, match.Breakdown.SemanticSimilarity)
	assert.Equal(t, 0.8, match.Breakdown.Availability)
	assert.InDelta(t, 0.40*1.0+0.25*1.0+0.20*1.0+0.15*0.8, match.TotalScore, 1e-9)
}

func TestMatch_RankedDescendingAndTruncated(t *testing.T) {
	results := make([]search.Result, 0, 15)
	for i := 0; i < 15; i++ {
		r := search.Result{
			EmployeeAlias: fmt.Sprintf("emp%02d", i),
			Score:         0.5,
		}
		// Give a few candidates the required skill so they outrank the rest.
		if i%3 == 0 {
			r.Skills = []string{"Go"}
		}
		results = append(results, r)
	}
	searcher := &stubSearcher{results: results}
	m := newTestMatcher(&stubLLM{err: errors.New("skip explanations")}, &stubEmbedder{vector: []float32{0.1}}, searcher)

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.NoError(t, err)
	assert.Len(t, resp.Matches, 10)
	assert.Equal(t, 15, resp.TotalCandidatesSearched)

	for i := 1; i < len(resp.Matches); i++ {
		assert.GreaterOrEqual(t, resp.Matches[i-1].TotalScore, resp.Matches[i].TotalScore)
	}
}

func TestMatch_TiesKeepSearchOrder(t *testing.T) {
	// Identical scores: stable sort must preserve retrieval order.
	searcher := &stubSearcher{results: []search.Result{
		{EmployeeAlias: "first", Score: 0.5},
		{EmployeeAlias: "second", Score: 0.5},
		{EmployeeAlias: "third", Score: 0.5},
	}}
	m := newTestMatcher(&stubLLM{err: errors.New("skip explanations")}, &stubEmbedder{vector: []float32{0.1}}, searcher)

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.NoError(t, err)
	require.Len(t, resp.Matches, 3)
	assert.Equal(t, "first", resp.Matches[0].EmployeeAlias)
	assert.Equal(t, "second", resp.Matches[1].EmployeeAlias)
	assert.Equal(t, "third", resp.Matches[2].EmployeeAlias)
}

func TestMatch_ExplanationsAttached(t *testing.T) {
	client := &stubLLM{response: `{"explanations":[{"employee_alias":"jdoe","explanation":"Sehr gute Passung."}]}`}
	searcher := &stubSearcher{results: []search.Result{{EmployeeAlias: "jdoe", Score: 0.9}}}
	m := newTestMatcher(client, &stubEmbedder{vector: []float32{0.1}}, searcher)

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "Projektbeschreibung")

	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "Sehr gute Passung.", resp.Matches[0].Explanation)
	assert.Contains(t, client.user, "jdoe")
}

func TestMatch_ExplanationFailureDegrades(t *testing.T) {
	client := &stubLLM{err: errors.New("model overloaded")}
	searcher := &stubSearcher{results: []search.Result{{EmployeeAlias: "jdoe", Score: 0.9}}}
	m := newTestMatcher(client, &stubEmbedder{vector: []float32{0.1}}, searcher)

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Empty(t, resp.Matches[0].Explanation)
}

func TestMatch_MalformedExplanationJSONDegrades(t *testing.T) {
	client := &stubLLM{response: "not json"}
	searcher := &stubSearcher{results: []search.Result{{EmployeeAlias: "jdoe", Score: 0.9}}}
	m := newTestMatcher(client, &stubEmbedder{vector: []float32{0.1}}, searcher)

	resp, err := m.Match(context.Background(), []types.ExtractedSkill{skillReq("Go", true, "")}, "text")

	require.NoError(t, err)
	assert.Empty(t, resp.Matches[0].Explanation)
}

func TestPrimaryLevel_Precedence(t *testing.T) {
	// First mandatory skill with a level wins.
	level := primaryLevel([]types.ExtractedSkill{
		skillReq("Go", false, types.LevelJunior),
		skillReq("Kubernetes", true, types.LevelSenior),
	})
	assert.Equal(t, types.LevelSenior, level)

	// No mandatory level: first skill with a level.
	level = primaryLevel([]types.ExtractedSkill{
		skillReq("Go", true, ""),
		skillReq("Kubernetes", false, types.LevelMid),
	})
	assert.Equal(t, types.LevelMid, level)

	// No levels at all.
	assert.Equal(t, "", primaryLevel([]types.ExtractedSkill{skillReq("Go", true, "")}))
}
