package llm

import (
	"encoding/json"
	"net/http"
)

// statusError maps an HTTP status from any SDK onto the package errors.
// Zero means the status is unknown.
func statusError(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// finish validates content for req and assembles the Response.
func finish(req Request, content json.RawMessage, usage Usage, model, stopReason string) (*Response, error) {
	if err := checkContent(req, content, stopReason); err != nil {
		return nil, err
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stopReason,
	}, nil
}

// resolveModel maps a short alias to the provider model ID. Unknown names
// pass through unchanged.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
