/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package interview

import (
	"regexp"
	"strconv"
	"strings"
)

// NoScore marks an evaluation without a recognisable score.
const NoScore = -1

// DefaultRecommendation is used when the summary has no recommendation line.
const DefaultRecommendation = "Further Review Recommended"

// Evaluation is the structured view of a summary text.
type Evaluation struct {
	Score           int      `json:"score"`
	Recommendation  string   `json:"recommendation"`
	TechnicalSkills string   `json:"technical_skills,omitempty"`
	Communication   string   `json:"communication,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Improvements    []string `json:"areas_for_improvement,omitempty"`
	Narrative       string   `json:"summary,omitempty"`
}

// HasScore reports whether a score was found.
func (e Evaluation) HasScore() bool {
	return e.Score != NoScore
}

var (
	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)score[:\s]+(\d+)/10`),
		regexp.MustCompile(`(?i)(\d+)\s*out of 10`),
		regexp.MustCompile(`(?i)rating[:\s]+(\d+)`),
		regexp.MustCompile(`(?i)overall[:\s]+(\d+)`),
	}
	recommendationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)recommendation[:\s]+(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?i)recommend[:\s]+(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?i)(don't hire|further review|hire)`),
	}
	bulletPrefix   = regexp.MustCompile(`^[-•*]\s*`)
	numberPrefix   = regexp.MustCompile(`^\d+\.\s*`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	sectionPattern = map[string]*regexp.Regexp{}
)

const minSentenceLength = 10

func init() {
	for _, name := range []string{"Technical Skills", "Communication", "Strengths", "Areas for improvement", "Summary"} {
		// A section runs from its heading to a blank line or a line starting
		// with a capital letter.
		sectionPattern[name] = regexp.MustCompile(
			`(?is)(?:^|\n)[ \t]*(?:\d+\.[ \t]*)?` + regexp.QuoteMeta(name) + `[:\s]+(.*?)(?:\n\n|(?-i:\n[A-Z])|$)`)
	}
}

// ParseEvaluation extracts score, recommendation and named sections from a
// summary produced by the model or the fallback template.
func ParseEvaluation(text string) Evaluation {
	return Evaluation{
		Score:           extractScore(text),
		Recommendation:  extractRecommendation(text),
		TechnicalSkills: extractSection(text, "Technical Skills"),
		Communication:   extractSection(text, "Communication"),
		Strengths:       extractList(text, "Strengths"),
		Improvements:    extractList(text, "Areas for improvement"),
		Narrative:       extractSection(text, "Summary"),
	}
}

func extractScore(text string) int {
	for _, re := range scorePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 && n <= 10 {
			return n
		}
	}
	return NoScore
}

func extractRecommendation(text string) string {
	for _, re := range recommendationPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if rec := strings.TrimSpace(m[1]); rec != "" {
			return rec
		}
	}
	return DefaultRecommendation
}

func extractSection(text, name string) string {
	m := sectionPattern[name].FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractList returns bullet or numbered items of a section, falling back
// to its sentences when the section is prose.
func extractList(text, name string) []string {
	section := extractSection(text, name)
	if section == "" {
		return nil
	}

	var items []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !isListItem(line) {
			continue
		}
		item := bulletPrefix.ReplaceAllString(line, "")
		item = numberPrefix.ReplaceAllString(item, "")
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		return items
	}

	for _, sentence := range sentenceSplit.Split(section, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) > minSentenceLength {
			items = append(items, sentence)
		}
	}
	return items
}

func isListItem(line string) bool {
	if line == "" {
		return false
	}
	switch {
	case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "•"), strings.HasPrefix(line, "*"):
		return true
	case line[0] >= '0' && line[0] <= '9':
		head := line
		if len(head) > 3 {
			head = head[:3]
		}
		return strings.Contains(head, ".")
	}
	return false
}
