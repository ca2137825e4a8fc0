// Package probe classifies the outcome of a provider concurrency probe and
// builds the synthetic request used to run one.
//
// A probe fires many identical small requests at a provider and records the
// HTTP status of each. Classify reduces that batch to a single failure
// category so the caller can explain why a concurrency level was rejected.
package probe

// Category is the failure class of a probe batch.
type Category string

const (
	CategoryAuth        Category = "auth"
	CategoryRateLimited Category = "rate_limited"
	CategoryNotFound    Category = "not_found"
	CategoryBadRequest  Category = "bad_request"
	CategoryTimeout     Category = "timeout"
	CategoryServerError Category = "server_error"
	CategoryNetwork     Category = "network"
	CategoryFailed      Category = "failed"
)

// StatusNetworkFailure marks a request that never produced an HTTP response.
const StatusNetworkFailure = 0

// ProbeMessageCount is the number of messages in the probe payload.
const ProbeMessageCount = 32

const probeGreeting = "Hello"

// Classify returns the category of a batch of observed status codes. The
// first matching rule wins regardless of the order or multiplicity of codes:
// auth, rate limiting, not found, bad request, timeout, 5xx, network, then
// the generic failed category.
func Classify(statusCodes []int) Category {
	seen := make(map[int]bool, len(statusCodes))
	has5xx := false
	for _, code := range statusCodes {
		seen[code] = true
		if code >= 500 && code <= 599 {
			has5xx = true
		}
	}

	switch {
	case seen[401] || seen[403]:
		return CategoryAuth
	case seen[429]:
		return CategoryRateLimited
	case seen[404]:
		return CategoryNotFound
	case seen[400]:
		return CategoryBadRequest
	case seen[504] || seen[408]:
		return CategoryTimeout
	case has5xx:
		return CategoryServerError
	case seen[StatusNetworkFailure]:
		return CategoryNetwork
	default:
		return CategoryFailed
	}
}

// Message is one chat message of the probe payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is an OpenAI-compatible chat completion request.
type Payload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// BuildProbePayload returns the fixed synthetic request used to exercise a
// provider's concurrency limit. The payload only depends on modelID.
func BuildProbePayload(modelID string) Payload {
	messages := make([]Message, ProbeMessageCount)
	for i := range messages {
		messages[i] = Message{Role: "user", Content: probeGreeting}
	}
	return Payload{
		Model:       modelID,
		Messages:    messages,
		MaxTokens:   8,
		Temperature: 0,
		Stream:      false,
	}
}
