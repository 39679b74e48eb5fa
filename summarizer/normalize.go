package summarizer

import (
	"strings"

	"github.com/bytedance/sonic"
)

// SummaryFields lists the response fields that may carry the summary, in
// priority order.
var SummaryFields = []string{"summary", "ai_summary", "text", "content", "message"}

// Response is the normalized upstream answer. Every upstream field is kept.
type Response map[string]any

// Summary returns the summary text, or false when the upstream sent none.
func (r Response) Summary() (string, bool) {
	s, ok := r["summary"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Normalize turns an upstream body into a Response. A JSON object has its
// first non-empty recognized field copied to "summary"; a JSON string or a
// non-JSON body becomes the summary itself.
func Normalize(body []byte) Response {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Response{}
	}

	var decoded any
	if err := sonic.UnmarshalString(trimmed, &decoded); err != nil {
		return Response{"summary": trimmed}
	}
	switch v := decoded.(type) {
	case map[string]any:
		resp := Response(v)
		if s := firstSummary(v); s != "" {
			resp["summary"] = s
		}
		return resp
	case string:
		if strings.TrimSpace(v) == "" {
			return Response{}
		}
		return Response{"summary": v}
	default:
		return Response{}
	}
}

func firstSummary(v map[string]any) string {
	for _, field := range SummaryFields {
		if s, ok := v[field].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
