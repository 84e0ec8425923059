package ai

import (
	"fmt"
	"net/http"
	"strings"
)

// FailureKind is the stable taxonomy the rest of the system sees for
// provider failures. Callers pick audience-appropriate wording from
// the kind; the raw upstream message never crosses the core boundary.
type FailureKind string

const (
	KindRateLimited       FailureKind = "rate_limited"
	KindInvalidCredential FailureKind = "invalid_credential"
	KindProviderError     FailureKind = "provider_error"
)

// ProviderFailure wraps an upstream provider error with its
// classified kind. Status is zero for transport-level failures.
type ProviderFailure struct {
	Kind    FailureKind
	Status  int
	Message string
}

func (e *ProviderFailure) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

// classify maps an upstream failure to the taxonomy. Structured
// status codes win; the message-substring heuristics only apply where
// the status is ambiguous (OpenAI reports quota exhaustion as 429 but
// some compatible backends only surface it in the message).
func classify(status int, message string) FailureKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindInvalidCredential
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return KindRateLimited
	}

	msg := strings.ToLower(message)
	if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") || strings.Contains(msg, "insufficient") {
		return KindRateLimited
	}
	if strings.Contains(msg, "api key") || strings.Contains(msg, "invalid") || strings.Contains(msg, "unauthorized") {
		return KindInvalidCredential
	}
	return KindProviderError
}

func failure(status int, message string) *ProviderFailure {
	return &ProviderFailure{Kind: classify(status, message), Status: status, Message: message}
}

func transportFailure(op string, err error) *ProviderFailure {
	return &ProviderFailure{Kind: KindProviderError, Message: fmt.Sprintf("%s: %v", op, err)}
}
