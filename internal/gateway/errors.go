package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/coursemarketer/internal/providers"
)

// Kind classifies a gateway failure
type Kind string

const (
	KindAuthConfig       Kind = "AUTH_CONFIG"
	KindResponseFormat   Kind = "RESPONSE_FORMAT"
	KindImageUnavailable Kind = "IMAGE_UNAVAILABLE"
	KindPaidTierRequired Kind = "PAID_TIER_REQUIRED"
	KindGeneric          Kind = "GENERIC"
)

var (
	ErrNoVideo      = errors.New("provider finished without a video")
	ErrVideoTimeout = errors.New("video generation did not finish in time")
)

// Error is returned by every gateway operation
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err, GENERIC for errors that did not come from
// the gateway.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindGeneric
}

// UserMessage is the text shown to a user for a failure kind
func UserMessage(kind Kind) string {
	switch kind {
	case KindAuthConfig:
		return "The Gemini API key is missing or invalid. Please enter a valid API key and try again."
	case KindResponseFormat:
		return "The AI returned an unexpected response. Please try again."
	case KindImageUnavailable:
		return "Image generation skipped (free tier limit or error). Using gradient fallback."
	case KindPaidTierRequired:
		return "This feature requires a paid Google Cloud project key. Please stick to the video script for free usage."
	default:
		return "Generation failed. Please try again."
	}
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps a provider failure of a text call onto AUTH_CONFIG or GENERIC
func classify(op string, err error) *Error {
	if isAuthFailure(err) {
		return newError(op, KindAuthConfig, err)
	}
	return newError(op, KindGeneric, err)
}

// classifyVideo additionally separates permission-denied, which for Veo means
// the key's project is not on a paid tier.
func classifyVideo(op string, err error) *Error {
	if isPermissionDenied(err) {
		return newError(op, KindPaidTierRequired, err)
	}
	return classify(op, err)
}

func isAuthFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *providers.Error
	if errors.As(err, &pe) {
		switch pe.HTTPStatus {
		case 400, 401, 403:
			return true
		}
		switch pe.Status {
		case "UNAUTHENTICATED", "PERMISSION_DENIED":
			return true
		}
		if mentionsAPIKey(pe.Message) {
			return true
		}
	}
	return mentionsAPIKey(err.Error())
}

func isPermissionDenied(err error) bool {
	var pe *providers.Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.HTTPStatus == 403 || pe.Status == "PERMISSION_DENIED"
}

func mentionsAPIKey(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "api key")
}
