// Package risk holds the error taxonomy shared by the indicator, classifier
// and compatibility stages. Terminal errors abort an operation and map to a
// distinct HTTP status at the API boundary; everything else is absorbed
// internally by a fallback path and never surfaced.
package risk

import "github.com/rotisserie/eris"

var (
	// ErrInsufficientData means the historical-data provider returned zero
	// rows for the instrument. Terminal, 404-equivalent. Defaulting only
	// applies when data exists but is too short or degenerate.
	ErrInsufficientData = eris.New("no historical data for instrument")

	// ErrDegenerateSeries means the series is present but statistically
	// unusable (zero volatility makes Sharpe undefined). Resolved internally
	// by the default-profile fallback, never returned to callers.
	ErrDegenerateSeries = eris.New("historical series is statistically degenerate")

	// ErrReasoningRateLimited is surfaced when the reasoning service returns
	// 429. Terminal: a single rate-limit response is not retried and not
	// fallback-eligible.
	ErrReasoningRateLimited = eris.New("reasoning service rate limited")

	// ErrReasoningPaymentRequired is surfaced when the reasoning service
	// returns 402. Terminal: indicates a billing problem, not a content one.
	ErrReasoningPaymentRequired = eris.New("reasoning service payment required")

	// ErrReasoningMalformedReply means the reasoning reply could not be
	// parsed or validated. Non-terminal: triggers the deterministic fallback.
	ErrReasoningMalformedReply = eris.New("reasoning service reply malformed")

	// ErrProfileNotFound means no investor profile exists for the user.
	ErrProfileNotFound = eris.New("investor profile not found")

	// ErrProfileRangeNotFound means no score band is configured for the
	// resolved profile name.
	ErrProfileRangeNotFound = eris.New("investor profile range not found")

	// ErrUnauthenticated means the request carried no user identity.
	ErrUnauthenticated = eris.New("missing authentication context")

	// ErrIndicatorsNotFound means the referenced risk indicators id does not
	// exist in the history store.
	ErrIndicatorsNotFound = eris.New("risk indicators not found")
)
