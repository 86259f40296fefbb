package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ripeness-detector/internal/domain/entity"
)

// chatCompletionResponse is the outer envelope of a chat-completions reply.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// reportPayload is the model's answer. Pointers tell a missing count from zero.
type reportPayload struct {
	TotalCount       *int   `json:"total_count"`
	UnripeCount      *int   `json:"unripe_count"`
	RipeCount        *int   `json:"ripe_count"`
	OverripeCount    *int   `json:"overripe_count"`
	DetailedAnalysis string `json:"detailed_analysis"`
}

// decodeEnvelope extracts choices[0].message.content from a response body.
func decodeEnvelope(body []byte) (string, error) {
	var raw chatCompletionResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("response body is not JSON: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("response has no choices")
	}
	content := strings.TrimSpace(raw.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("response content is empty")
	}
	return content, nil
}

// decodeReport parses the model's JSON answer into a validated report.
func decodeReport(content string) (*entity.RipenessReport, error) {
	out := stripCodeFences(content)

	var p reportPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		return nil, fmt.Errorf("content is not a JSON report: %w", err)
	}

	fields := []struct {
		name  string
		value *int
	}{
		{"total_count", p.TotalCount},
		{"unripe_count", p.UnripeCount},
		{"ripe_count", p.RipeCount},
		{"overripe_count", p.OverripeCount},
	}
	var missing []string
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("report is missing %s", strings.Join(missing, ", "))
	}

	report := &entity.RipenessReport{
		TotalCount:       *p.TotalCount,
		UnripeCount:      *p.UnripeCount,
		RipeCount:        *p.RipeCount,
		OverripeCount:    *p.OverripeCount,
		DetailedAnalysis: strings.TrimSpace(p.DetailedAnalysis),
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

// stripCodeFences removes a surrounding markdown fence with an optional
// language tag (```json, ```JSON, ...).
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if tag := len(s) - len(strings.TrimLeftFunc(s, unicode.IsLetter)); tag > 0 && strings.EqualFold(s[:tag], "json") {
		s = s[tag:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncate shortens upstream error bodies for messages and logs, cutting at a
// rune boundary.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
