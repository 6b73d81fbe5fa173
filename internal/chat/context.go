package chat

import (
	"fmt"
	"strings"

	"github.com/emposo/cvision/internal/search"
)

// contextResultLimit caps how many results are rendered into the prompt.
const contextResultLimit = 10

// profileExcerptLimit caps the profile text per rendered result.
const profileExcerptLimit = 300

const systemPromptDE = "Du bist ein KI-Assistent für HR-Fachleute bei der Suche nach geeigneten Mitarbeitern. Deine Aufgabe:\n" +
	"1. Analysiere die bereitgestellten Mitarbeiterdaten und beantworte präzise die Anfrage.\n" +
	"2. Verwende nur Informationen, die in den Mitarbeiterdaten vorhanden sind.\n" +
	"3. Strukturiere deine Antwort klar und hebe wichtige Informationen hervor.\n" +
	"4. Vergleiche Mitarbeiter miteinander und stelle ihre jeweiligen Stärken und Schwächen gegenüber.\n" +
	"5. Wenn relevante Filterkriterien in der Anfrage erkannt wurden (z.B. Standort oder Erfahrung), " +
	"betone besonders, welche Mitarbeiter diese Kriterien erfüllen.\n" +
	"6. Sei objektiv, professionell und konzentriere dich auf Fakten.\n" +
	"7. Wenn du einen besonders geeigneten Mitarbeiter identifizierst, erkläre warum.\n" +
	"8. Wenn keine Mitarbeiter den Anforderungen entsprechen, erkläre dies ehrlich.\n" +
	"9. Schließe mit einer Empfehlung ab, welcher Mitarbeiter am besten zur Anfrage passt.\n" +
	"10. Formatiere deine Antwort mit Markdown für bessere Lesbarkeit."

const systemPromptEN = "You are an AI assistant for HR professionals searching for suitable employees. Your task:\n" +
	"1. Analyze the provided employee data and precisely answer the query.\n" +
	"2. Only use information that is present in the employee data.\n" +
	"3. Structure your answer clearly and highlight important information.\n" +
	"4. Compare employees and contrast their respective strengths and weaknesses.\n" +
	"5. If relevant filter criteria were recognized in the query (e.g., location or experience), " +
	"emphasize which employees meet these criteria.\n" +
	"6. Be objective, professional, and focus on facts.\n" +
	"7. If you identify a particularly suitable employee, explain why.\n" +
	"8. If no employees meet the requirements, explain this honestly.\n" +
	"9. Conclude with a recommendation of which employee(s) best match the query.\n" +
	"10. Format your answer with Markdown for better readability."

func systemPrompt(language string) string {
	if language == "de" {
		return systemPromptDE
	}
	return systemPromptEN
}

// assembleContext renders search results as a numbered, labeled list for the
// LLM prompt. The context string is never empty: an explicit no-matches
// sentence stands in when there are no results, and a trailing note reports
// results beyond the render limit.
func assembleContext(results []search.Result, language string) string {
	if len(results) == 0 {
		if language == "de" {
			return "Keine passenden Mitarbeiter gefunden."
		}
		return "No matching employees found."
	}

	var sb strings.Builder
	if language == "de" {
		sb.WriteString("Hier sind die relevantesten Mitarbeiter für Ihre Anfrage:\n\n")
	} else {
		sb.WriteString("Here are the most relevant employees for your query:\n\n")
	}

	shown := results
	if len(shown) > contextResultLimit {
		shown = shown[:contextResultLimit]
	}

	for i, result := range shown {
		name := result.EmployeeName
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&sb, "**%d. %s**\n", i+1, name)
		if result.EmployeeAlias != "" {
			fmt.Fprintf(&sb, "  Alias: %s\n", result.EmployeeAlias)
		}
		if result.Title != "" {
			fmt.Fprintf(&sb, "  %s: %s\n", label(language, "Position", "Title"), result.Title)
		}
		if result.Location != "" {
			fmt.Fprintf(&sb, "  %s: %s\n", label(language, "Standort", "Location"), result.Location)
		}
		if len(result.Skills) > 0 {
			fmt.Fprintf(&sb, "  %s: %s\n", label(language, "Fähigkeiten", "Skills"), strings.Join(result.Skills, ", "))
		}
		if len(result.Tools) > 0 {
			fmt.Fprintf(&sb, "  Tools: %s\n", strings.Join(result.Tools, ", "))
		}
		if result.Content != "" {
			fmt.Fprintf(&sb, "  %s: %s\n", label(language, "Profil", "Profile"), excerpt(result.Content))
		}
		sb.WriteString("\n")
	}

	if remaining := len(results) - contextResultLimit; remaining > 0 {
		if language == "de" {
			fmt.Fprintf(&sb, "... und %d weitere Ergebnisse\n", remaining)
		} else {
			fmt.Fprintf(&sb, "... and %d more results\n", remaining)
		}
	}

	return sb.String()
}

func label(language, de, en string) string {
	if language == "de" {
		return de
	}
	return en
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= profileExcerptLimit {
		return content
	}
	return string(runes[:profileExcerptLimit])
}
