// Package types provides type definitions for structured data used throughout the cvision system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// Skill categories recognized by the skill extractor.
const (
	SkillCategoryProgramming = "programming"
	SkillCategoryFramework   = "framework"
	SkillCategoryCloud       = "cloud"
	SkillCategoryDatabase    = "database"
	SkillCategoryMethodology = "methodology"
	SkillCategorySoftSkill   = "soft_skill"
	SkillCategoryDomain      = "domain"
	SkillCategoryOther       = "other"
)

// Experience levels recognized in skill requirements.
const (
	LevelJunior = "junior"
	LevelMid    = "mid"
	LevelSenior = "senior"
	LevelExpert = "expert"
)

// ExtractedSkill is a single skill requirement extracted from a Lastenheft.
// Mandatory skills weigh double in candidate matching. Level is empty when
// the document does not specify one.
type ExtractedSkill struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Mandatory bool   `json:"mandatory"`
	Level     string `json:"level,omitempty"`
}

// QualityScore is the LLM quality assessment of a Lastenheft. All scores are
// on a 0-100 scale. Overall is the LLM's own weighted composite and is
// reported as-is, never recomputed by the backend.
type QualityScore struct {
	Completeness int    `json:"completeness"`
	Clarity      int    `json:"clarity"`
	Specificity  int    `json:"specificity"`
	Feasibility  int    `json:"feasibility"`
	Overall      int    `json:"overall"`
	Summary      string `json:"summary"`
}

// OpenQuestion is a clarification question the LLM identified in a Lastenheft.
// Category is one of technical, team, timeline, budget, domain; priority is
// one of high, medium, low.
type OpenQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// AnalysisRequest is the request body for Lastenheft analysis.
type AnalysisRequest struct {
	Text string `json:"text" validate:"required,min=50,max=500000"`
}

// Validate validates the AnalysisRequest using the validator.
func (r *AnalysisRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// AnalysisResponse aggregates the three independent analysis stages. It is
// only ever returned whole; a failure of any stage fails the whole analysis.
type AnalysisResponse struct {
	QualityAssessment QualityScore     `json:"quality_assessment"`
	OpenQuestions     []OpenQuestion   `json:"open_questions"`
	ExtractedSkills   []ExtractedSkill `json:"extracted_skills"`
}

// ScoreBreakdown holds the four sub-scores of a candidate match. Each
// component is independently bounded in [0,1] and rounded to 4 decimals.
type ScoreBreakdown struct {
	SkillMatch         float64 `json:"skill_match"`
	Experience         float64 `json:"experience"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
	Availability       float64 `json:"availability"`
}

// CandidateMatch is one ranked candidate. Explanation may be empty when the
// explanation stage was skipped or failed.
type CandidateMatch struct {
	EmployeeName  string         `json:"employee_name"`
	EmployeeAlias string         `json:"employee_alias"`
	Title         string         `json:"title"`
	Location      string         `json:"location"`
	Skills        []string       `json:"skills"`
	TotalScore    float64        `json:"total_score"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Explanation   string         `json:"explanation"`
}

// CandidateMatchRequest is the request body for candidate matching.
type CandidateMatchRequest struct {
	ExtractedSkills []ExtractedSkill `json:"extracted_skills" validate:"required,min=1"`
	Text            string           `json:"text" validate:"required,min=1,max=500000"`
}

// Validate validates the CandidateMatchRequest using the validator.
func (r *CandidateMatchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CandidateMatchResponse is the ranked match list. Matches are sorted by
// total score descending and truncated to the candidate cap;
// TotalCandidatesSearched counts the results before truncation.
type CandidateMatchResponse struct {
	Matches                 []CandidateMatch `json:"matches"`
	TotalCandidatesSearched int              `json:"total_candidates_searched"`
	QuerySkills             []string         `json:"query_skills"`
}

// LastenheftTextRequest is the request body for plain text paste.
type LastenheftTextRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500000"`
}

// Validate validates the LastenheftTextRequest using the validator.
func (r *LastenheftTextRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// LastenheftUploadResponse is returned after successful text extraction.
// Format is one of pdf, docx, text.
type LastenheftUploadResponse struct {
	ExtractedText string `json:"extracted_text"`
	CharCount     int    `json:"char_count"`
	Format        string `json:"format"`
}

// ChatRequest is the request body for the streaming employee chat.
type ChatRequest struct {
	Query    string `json:"query" validate:"required,min=1,max=2000"`
	Language string `json:"language" validate:"omitempty,oneof=de en"`
}

// Validate validates the ChatRequest using the validator.
func (r *ChatRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
