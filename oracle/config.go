package oracle

import (
	"autara/lendingerr"
	afixed "autara/math"
)

// ValidationConfig bounds how a raw published rate is accepted: each
// bound is optional — a nil pointer disables that check entirely,
// mirroring the source's PodOption fields.
type ValidationConfig struct {
	MaxAgeSeconds         *uint64
	MinRelativeConfidence *afixed.IFixed
	MinSignatureThreshold *uint64
}

// DefaultValidationConfig is the teacher's default: one hour of
// staleness tolerance and 5% relative confidence, with no minimum
// signature requirement (unused on the Pyth decode path here).
func DefaultValidationConfig() ValidationConfig {
	maxAge := uint64(60 * 60)
	minConf := afixed.MustParse("0.05")
	minSig := uint64(0)
	return ValidationConfig{
		MaxAgeSeconds:         &maxAge,
		MinRelativeConfidence: &minConf,
		MinSignatureThreshold: &minSig,
	}
}

// NewValidationConfig builds a config with both the age and confidence
// bounds set, and no signature-count requirement.
func NewValidationConfig(maxAgeSeconds uint64, minRelativeConfidence afixed.IFixed) ValidationConfig {
	return ValidationConfig{
		MaxAgeSeconds:         &maxAgeSeconds,
		MinRelativeConfidence: &minRelativeConfidence,
	}
}

// Unchecked pairs a just-decoded Rate with its publish time, pending
// the sign/zero/age/confidence validation every caller must run before
// trusting it for an LTV-sensitive computation.
type Unchecked struct {
	rate        Rate
	publishTime int64
}

// NewUnchecked wraps rate as not-yet-validated, published at
// publishTime (unix seconds).
func NewUnchecked(rate Rate, publishTime int64) Unchecked {
	return Unchecked{rate: rate, publishTime: publishTime}
}

// UnsafeRate returns the wrapped Rate without running any validation.
// Only used internally by Validate and by tests constructing fixtures.
func (u Unchecked) UnsafeRate() Rate { return u.rate }

// Validate checks u against config as of unixTimestamp, in order: sign,
// zero, age, then confidence. Returns the validated Rate on success.
func (u Unchecked) Validate(config ValidationConfig, unixTimestamp int64) (Rate, error) {
	if u.rate.rate.IsNegative() || u.rate.confidence.IsNegative() {
		return Rate{}, lendingerr.WithContext(lendingerr.NegativeOracleRate)
	}
	if u.rate.rate.IsZero() {
		return Rate{}, lendingerr.WithContext(lendingerr.OracleRateIsNull)
	}
	age := unixTimestamp - u.publishTime
	if age < 0 {
		age = 0
	}
	if config.MaxAgeSeconds != nil && uint64(age) > *config.MaxAgeSeconds {
		return Rate{}, lendingerr.WithContext(lendingerr.OracleRateTooOld)
	}
	relativeConfidence, err := u.rate.RelativeConfidence()
	if err != nil {
		return Rate{}, lendingerr.Track(err)
	}
	if config.MinRelativeConfidence != nil && relativeConfidence.Greater(*config.MinRelativeConfidence) {
		return Rate{}, lendingerr.WithContext(lendingerr.OracleRateRelativeConfidenceTooLow)
	}
	return u.rate, nil
}
