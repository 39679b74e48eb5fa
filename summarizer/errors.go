package summarizer

import "fmt"

// ConfigError reports a missing gateway setting.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// UpstreamError is a non-2xx answer from the summarize endpoint. Body holds
// the decoded JSON object when the upstream sent one.
type UpstreamError struct {
	StatusCode int
	Message    string
	Body       map[string]any
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("summarize upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("summarize upstream returned %d: %s", e.StatusCode, e.Message)
}
