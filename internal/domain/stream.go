package domain

// MessageType discriminates StreamMessage variants.
type MessageType string

const (
	MessageProgress MessageType = "progress"
	MessageResult   MessageType = "result"
	MessageError    MessageType = "error"
	MessageDone     MessageType = "done"
)

// StreamMessage is one event in the batch analysis stream.
// Exactly one payload field is set, matching Type. Ephemeral, never persisted.
type StreamMessage struct {
	Type     MessageType      `json:"type"`
	Progress *ProgressPayload `json:"progress,omitempty"`
	Result   *ResultPayload   `json:"result,omitempty"`
	Error    *ErrorPayload    `json:"error,omitempty"`
	Done     *DonePayload     `json:"done,omitempty"`
}

// ProgressPayload reports batch progress after each processed item.
type ProgressPayload struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// ResultPayload carries a completed risk score.
type ResultPayload struct {
	Token  TokenRequest `json:"token"`
	Result *RiskScore   `json:"result"`
	Cached bool         `json:"cached"`
}

// ErrorPayload reports a per-item failure.
type ErrorPayload struct {
	Token TokenRequest `json:"token"`
	Error string       `json:"error"`
}

// DonePayload carries batch summary counters. Always the last message.
type DonePayload struct {
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	CacheHits  int   `json:"cacheHits"`
	DurationMs int64 `json:"durationMs"`
}

// ProgressMessage builds a progress StreamMessage.
func ProgressMessage(processed, total int) StreamMessage {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}
	return StreamMessage{
		Type:     MessageProgress,
		Progress: &ProgressPayload{Processed: processed, Total: total, Percent: percent},
	}
}

// ResultMessage builds a result StreamMessage.
func ResultMessage(token TokenRequest, score *RiskScore, cached bool) StreamMessage {
	return StreamMessage{
		Type:   MessageResult,
		Result: &ResultPayload{Token: token, Result: score, Cached: cached},
	}
}

// ErrorMessage builds an error StreamMessage.
func ErrorMessage(token TokenRequest, errText string) StreamMessage {
	return StreamMessage{
		Type:  MessageError,
		Error: &ErrorPayload{Token: token, Error: errText},
	}
}

// DoneMessage builds the terminal StreamMessage.
func DoneMessage(succeeded, failed, cacheHits int, durationMs int64) StreamMessage {
	return StreamMessage{
		Type: MessageDone,
		Done: &DonePayload{Succeeded: succeeded, Failed: failed, CacheHits: cacheHits, DurationMs: durationMs},
	}
}
