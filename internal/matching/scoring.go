// Package matching provides the candidate-matching engine: deterministic
// multi-factor scoring of employees against extracted skill requirements,
// and the orchestration of embedding, hybrid search, and explanation stages.
package matching

import (
	"math"
	"strings"

	"github.com/emposo/cvision/internal/types"
)

// Skill weighting: mandatory skills count double.
const (
	mandatorySkillWeight = 2.0
	optionalSkillWeight  = 1.0
)

// neutralExperienceScore is returned when no experience level is required:
// no requirement means no penalty, but also no full credit.
const neutralExperienceScore = 0.7

// levelRange is the ideal years-of-experience range for a required level.
type levelRange struct {
	min float64
	max float64
}

var levelRanges = map[string]levelRange{
	types.LevelJunior: {0, 2},
	types.LevelMid:    {2, 5},
	types.LevelSenior: {5, 10},
	types.LevelExpert: {8, 20},
}

// SkillMatchScore computes the weighted overlap between required skills and
// an employee's combined skill and tool set, case-insensitively. Mandatory
// skills contribute weight 2.0, optional skills 1.0. Returns 0 when either
// the requirements or the employee set is empty.
func SkillMatchScore(required []types.ExtractedSkill, employeeSkills, employeeTools []string) float64 {
	if len(required) == 0 {
		return 0.0
	}

	employeeSet := make(map[string]bool, len(employeeSkills)+len(employeeTools))
	for _, s := range employeeSkills {
		employeeSet[strings.ToLower(s)] = true
	}
	for _, t := range employeeTools {
		employeeSet[strings.ToLower(t)] = true
	}
	if len(employeeSet) == 0 {
		return 0.0
	}

	weightedTotal := 0.0
	weightedMatched := 0.0
	for _, skill := range required {
		weight := optionalSkillWeight
		if skill.Mandatory {
			weight = mandatorySkillWeight
		}
		weightedTotal += weight
		if employeeSet[strings.ToLower(skill.Name)] {
			weightedMatched += weight
		}
	}

	if weightedTotal == 0.0 {
		return 0.0
	}
	return weightedMatched / weightedTotal
}

// ExperienceScore rates how well an employee's years of experience fit a
// required level. An empty level yields the neutral constant 0.7. Otherwise
// the score falls off linearly with distance from the ideal range midpoint,
// with a tolerance band of half the range width plus two years, so candidates
// near but outside the nominal range still score positively.
func ExperienceScore(requiredLevel string, years float64) float64 {
	if requiredLevel == "" {
		return neutralExperienceScore
	}

	r, ok := levelRanges[requiredLevel]
	if !ok {
		r = levelRanges[types.LevelMid]
	}

	idealMid := (r.min + r.max) / 2.0
	spread := (r.max-r.min)/2.0 + 2.0

	score := math.Max(0.0, 1.0-math.Abs(years-idealMid)/spread)
	return math.Min(1.0, score)
}

// NormalizeSearchScore rescales a raw search score linearly against the best
// score in the current result batch. Scores are always relative to the
// current query's result set, not an absolute global scale. Returns 0 when
// maxScore is not positive.
func NormalizeSearchScore(score, maxScore float64) float64 {
	if maxScore <= 0.0 {
		return 0.0
	}
	normalized := score / maxScore
	return math.Max(0.0, math.Min(1.0, normalized))
}

// round4 rounds to 4 decimal places, the precision of all reported scores.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
