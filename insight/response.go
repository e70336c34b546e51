package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Response types mirror the JSON contract the model is prompted with.
const (
	ResponseInfo     = "info"
	ResponseAnalysis = "analysis"
	ResponseError    = "error"
)

// Insight is one generated finding: a description, the SQL that backs it,
// and (after execution) the rows it produced.
type Insight struct {
	Insight       string                   `json:"insight"`
	BusinessValue string                   `json:"business_value,omitempty"`
	SQLQuery      string                   `json:"sql_query,omitempty"`
	Visualization string                   `json:"visualization,omitempty"`
	Metrics       []string                 `json:"metrics,omitempty"`
	Columns       []string                 `json:"columns,omitempty"`
	Rows          []map[string]interface{} `json:"rows,omitempty"`
	Note          string                   `json:"note,omitempty"`
}

// AnalysisResponse is the structured answer for one question.
type AnalysisResponse struct {
	ResponseType string    `json:"response_type"`
	Insights     []Insight `json:"insights,omitempty"`
	Answer       string    `json:"answer,omitempty"`
	Cached       bool      `json:"cached,omitempty"`
}

// ErrorResponse builds an error-typed response from a message.
func ErrorResponse(format string, args ...interface{}) *AnalysisResponse {
	return &AnalysisResponse{
		ResponseType: ResponseError,
		Answer:       fmt.Sprintf(format, args...),
	}
}

// ParseResponse turns a cleaned model reply into an AnalysisResponse.
// Plain-text refusals become error responses instead of parse failures.
func ParseResponse(cleaned string) *AnalysisResponse {
	raw := strings.TrimSpace(cleaned)
	if raw == "" {
		return ErrorResponse("No response generated. Please try rewording your question.")
	}

	// Models occasionally wrap the JSON in prose. Slice to the outermost
	// object before unmarshalling.
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var resp AnalysisResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		if strings.Contains(strings.ToLower(cleaned), "unable to generate") {
			return ErrorResponse("%s", strings.TrimSpace(cleaned))
		}
		return ErrorResponse("Failed to parse response: %v", err)
	}

	switch resp.ResponseType {
	case ResponseInfo:
		if resp.Answer == "" {
			resp.Answer = "No answer provided."
		}
		resp.Insights = nil
		return &resp
	case ResponseAnalysis:
		if len(resp.Insights) == 0 {
			return &AnalysisResponse{
				ResponseType: ResponseInfo,
				Answer:       "The model returned an analysis with no insights. Try asking a more specific question.",
			}
		}
		return &resp
	case ResponseError:
		if resp.Answer == "" {
			resp.Answer = "The model reported an error without details."
		}
		return &resp
	default:
		return ErrorResponse("Unknown response type: %s", resp.ResponseType)
	}
}
