package app

import (
	"errors"

	"tenantbot/internal/ai"
)

// Kind is the stable error taxonomy crossing the core boundary. The
// presentation layer maps kinds to HTTP statuses; Message is already
// audience-appropriate and never contains raw provider payloads.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindRateLimited       Kind = "rate_limited"
	KindProvider          Kind = "provider_error"
	KindTooManyFragments  Kind = "too_many_fragments"
	KindEmptyContent      Kind = "empty_content"
	KindInternal          Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Audience selects the wording of classified errors. Tenants acting
// on their own credential get actionable remediation text; end users
// on the public widget get a deflection that names no internal detail.
type Audience int

const (
	AudienceTenant Audience = iota
	AudienceEndUser
)

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func missingCredentialError(aud Audience) *Error {
	if aud == AudienceEndUser {
		return newError(KindMissingCredential, "Bot owner has not added an OpenAI key.")
	}
	return newError(KindMissingCredential, "Missing OpenAI key in Settings. Please save your OpenAI key first.")
}

// classifyProviderError translates a provider client failure into a
// boundary error with audience-appropriate wording.
func classifyProviderError(err error, aud Audience) *Error {
	var pf *ai.ProviderFailure
	if !errors.As(err, &pf) {
		return newError(KindProvider, genericProviderMessage(aud))
	}
	switch pf.Kind {
	case ai.KindRateLimited:
		if aud == AudienceEndUser {
			return newError(KindRateLimited, "This bot owner's OpenAI account has no available quota/billing. Please contact the website owner.")
		}
		return newError(KindRateLimited, "This workspace OpenAI key has no quota/billing. Please update the key in Settings.")
	case ai.KindInvalidCredential:
		if aud == AudienceEndUser {
			return newError(KindInvalidCredential, "This bot owner's OpenAI key is invalid. Please contact the website owner.")
		}
		return newError(KindInvalidCredential, "This workspace OpenAI key is invalid. Please update the key in Settings.")
	default:
		return newError(KindProvider, genericProviderMessage(aud))
	}
}

func genericProviderMessage(aud Audience) string {
	if aud == AudienceEndUser {
		return "Something went wrong. Please try again later."
	}
	return "The AI provider request failed. Please try again."
}
