package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/llm"
	"github.com/emposo/cvision/internal/search"
	"github.com/emposo/cvision/internal/types"
)

// Weights of the four sub-scores. They must sum to 1.0 so the total score
// stays bounded in [0,1].
const (
	weightSkillMatch   = 0.40
	weightExperience   = 0.25
	weightSemantic     = 0.20
	weightAvailability = 0.15
)

// defaultAvailability is the constant availability signal used until a real
// staffing source is wired in.
const defaultAvailability = 0.8

// maxCandidates caps the ranked list; the search retrieves twice as many so
// ranking has headroom over raw relevance order.
const maxCandidates = 10

const (
	explanationTemperature = 0.3
	explanationMaxTokens   = 3000
)

const explanationSystemPrompt = "Du bist ein HR-Experte der die Eignung von Kandidaten für Projekte bewertet. " +
	"Du erhältst eine Zusammenfassung der Projektanforderungen (Lastenheft) sowie eine " +
	"Liste von Kandidaten mit ihren Fähigkeiten und Bewertungen.\n\n" +
	"Erstelle für jeden Kandidaten eine kurze Erklärung (2-3 Sätze), warum er gut oder " +
	"weniger gut zum Projekt passt. Beziehe dich auf konkrete Skills und Erfahrungen.\n\n" +
	"Antworte ausschließlich als JSON-Objekt mit dem Feld 'explanations', " +
	"wobei jedes Element die Felder 'employee_alias' und 'explanation' hat."

// ErrNotInitialized indicates the matcher was constructed without its
// required collaborators. This is a deployment configuration error and is
// never retried.
var ErrNotInitialized = errors.New("candidate matcher not initialized")

// AvailabilityFunc supplies the availability sub-score for one search result.
type AvailabilityFunc func(result search.Result) float64

// ConstantAvailability returns an AvailabilityFunc that reports the same
// availability for every candidate.
func ConstantAvailability(score float64) AvailabilityFunc {
	return func(search.Result) float64 { return score }
}

// Matcher ranks employees against extracted skill requirements by combining
// lexical skill overlap, experience fit, normalized semantic relevance, and
// availability into a weighted total.
type Matcher struct {
	llm          llm.Client
	embedder     llm.Embedder
	searcher     search.Searcher
	availability AvailabilityFunc
	logger       *zap.Logger
}

// NewMatcher creates a Matcher with the given collaborators. A nil
// availability function falls back to the constant default signal.
func NewMatcher(client llm.Client, embedder llm.Embedder, searcher search.Searcher, availability AvailabilityFunc, logger *zap.Logger) *Matcher {
	if availability == nil {
		availability = ConstantAvailability(defaultAvailability)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		llm:          client,
		embedder:     embedder,
		searcher:     searcher,
		availability: availability,
		logger:       logger,
	}
}

// Match runs the end-to-end pipeline: build the search query from the
// required skills, embed it, retrieve candidates via hybrid search, score and
// rank them, and attach best-effort LLM explanations to the top candidates.
// Embedding and search failures abort the match; explanation failures degrade
// to empty explanations.
func (m *Matcher) Match(ctx context.Context, skills []types.ExtractedSkill, text string) (*types.CandidateMatchResponse, error) {
	if m.llm == nil || m.embedder == nil || m.searcher == nil {
		return nil, ErrNotInitialized
	}

	queryText, allSkillNames := buildSearchQuery(skills)

	queryVector, err := m.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	results, err := m.searcher.HybridSearch(ctx, queryText, queryVector, maxCandidates*2)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return &types.CandidateMatchResponse{
			Matches:                 []types.CandidateMatch{},
			TotalCandidatesSearched: 0,
			QuerySkills:             allSkillNames,
		}, nil
	}

	// Batch maximum is fixed before scoring so semantic scores stay stable
	// across the batch and are not recomputed after truncation.
	maxSearchScore := 0.0
	for _, r := range results {
		if r.Score > maxSearchScore {
			maxSearchScore = r.Score
		}
	}
	if maxSearchScore == 0.0 {
		maxSearchScore = 1.0
	}

	scored := make([]scoredCandidate, 0, len(results))
	for _, result := range results {
		total, breakdown := m.scoreCandidate(result, skills, maxSearchScore)
		scored = append(scored, scoredCandidate{total: total, breakdown: breakdown, result: result})
	}

	// Stable sort: ties keep search-relevance order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].total > scored[j].total
	})
	top := scored
	if len(top) > maxCandidates {
		top = top[:maxCandidates]
	}

	explanations := m.generateExplanations(ctx, top, skills, text)

	matches := make([]types.CandidateMatch, 0, len(top))
	for _, sc := range top {
		matches = append(matches, types.CandidateMatch{
			EmployeeName:  sc.result.EmployeeName,
			EmployeeAlias: sc.result.EmployeeAlias,
			Title:         sc.result.Title,
			Location:      sc.result.Location,
			Skills:        sc.result.Skills,
			TotalScore:    sc.total,
			Breakdown:     sc.breakdown,
			Explanation:   explanations[sc.result.EmployeeAlias],
		})
	}

	return &types.CandidateMatchResponse{
		Matches:                 matches,
		TotalCandidatesSearched: len(results),
		QuerySkills:             allSkillNames,
	}, nil
}

type scoredCandidate struct {
	total     float64
	breakdown types.ScoreBreakdown
	result    search.Result
}

// buildSearchQuery narrows the query text to mandatory skill names when any
// exist; the reported skill list always includes optional skills too.
func buildSearchQuery(skills []types.ExtractedSkill) (queryText string, allNames []string) {
	var mandatory []string
	allNames = make([]string, 0, len(skills))
	for _, s := range skills {
		allNames = append(allNames, s.Name)
		if s.Mandatory {
			mandatory = append(mandatory, s.Name)
		}
	}

	queryNames := mandatory
	if len(queryNames) == 0 {
		queryNames = allNames
	}
	return strings.Join(queryNames, " "), allNames
}

// primaryLevel picks the experience level to score against: the first
// mandatory skill with a level, else the first skill with a level, else none.
func primaryLevel(skills []types.ExtractedSkill) string {
	for _, s := range skills {
		if s.Mandatory && s.Level != "" {
			return s.Level
		}
	}
	for _, s := range skills {
		if s.Level != "" {
			return s.Level
		}
	}
	return ""
}

func (m *Matcher) scoreCandidate(result search.Result, required []types.ExtractedSkill, maxSearchScore float64) (float64, types.ScoreBreakdown) {
	skillScore := SkillMatchScore(required, result.Skills, result.Tools)
	experienceScore := ExperienceScore(primaryLevel(required), result.YearsOfExperience)
	semanticScore := NormalizeSearchScore(result.Score, maxSearchScore)
	availabilityScore := m.availability(result)

	total := weightSkillMatch*skillScore +
		weightExperience*experienceScore +
		weightSemantic*semanticScore +
		weightAvailability*availabilityScore

	breakdown := types.ScoreBreakdown{
		SkillMatch:         round4(skillScore),
		Experience:         round4(experienceScore),
		SemanticSimilarity: round4(semanticScore),
		Availability:       round4(availabilityScore),
	}
	return round4(total), breakdown
}

type explanationItem struct {
	EmployeeAlias string `json:"employee_alias"`
	Explanation   string `json:"explanation"`
}

type explanationResponse struct {
	Explanations []explanationItem `json:"explanations"`
}

// generateExplanations asks the LLM for a short fit explanation per ranked
// candidate. The call is best-effort: ranking must succeed even when the
// explanation stage fails, so every error path returns an empty map.
func (m *Matcher) generateExplanations(ctx context.Context, candidates []scoredCandidate, skills []types.ExtractedSkill, text string) map[string]string {
	skillNames := make([]string, 0, len(skills))
	for _, s := range skills {
		skillNames = append(skillNames, s.Name)
	}

	var sb strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s (%s): Skills: %s, Tools: %s, Titel: %s\n",
			c.result.EmployeeAlias,
			c.result.EmployeeName,
			strings.Join(c.result.Skills, ", "),
			strings.Join(c.result.Tools, ", "),
			c.result.Title,
		)
	}

	userContent := fmt.Sprintf(
		"Lastenheft-Anforderungen (Kurzfassung):\nGeforderte Skills: %s\n\nText-Auszug: %s\n\nKandidaten:\n%s",
		strings.Join(skillNames, ", "),
		truncateText(text, 1000),
		sb.String(),
	)

	raw, err := m.llm.GenerateJSON(ctx, explanationSystemPrompt, userContent, llm.GenerateOptions{
		Temperature:     explanationTemperature,
		MaxOutputTokens: explanationMaxTokens,
	})
	if err != nil {
		m.logger.Warn("failed to generate match explanations, continuing without", zap.Error(err))
		return map[string]string{}
	}

	var parsed explanationResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		m.logger.Warn("failed to parse match explanations, continuing without", zap.Error(err))
		return map[string]string{}
	}

	explanations := make(map[string]string, len(parsed.Explanations))
	for _, item := range parsed.Explanations {
		explanations[item.EmployeeAlias] = item.Explanation
	}
	return explanations
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
