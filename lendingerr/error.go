// Package lendingerr defines Autara's closed error taxonomy and the
// call-site trail every core operation attaches to a failure.
package lendingerr

import (
	"fmt"
	"runtime"
	"strings"
)

// Kind is a closed enumeration of every way a core operation can fail.
// It is organized in the same three layers as the source: arithmetic,
// accounting/policy, and oracle.
type Kind uint8

const (
	// Arithmetic.
	MathOverflow Kind = iota
	AdditionOverflow
	SubtractionOverflow
	MultiplicationOverflow
	DivisionOverflow
	DivisionByZero
	CastOverflow
	InvalidExpArg

	// Accounting / policy.
	MaxLtvReached
	MaxUtilisationRateReached
	MaxSupplyReached
	InvalidLtvConfig
	InvalidCurve
	InvalidMaxUtilisationRate
	InvalidLiquidationLtvShouldDecrease
	FailedToLoadAccount
	WithdrawalExceedsReserves
	WithdrawalExceedsDeposited
	RepayExceedsBorrowed
	LiquidationDidNotMeetRequirements
	FeeTooHigh
	SharesOverflow
	InvalidNomination
	CantModifySharePriceIfZeroShares
	NegativeInterestRate
	CannotSocializeDebtForHealthyPosition
	UnsupportedMintDecimals
	PositionIsHealthy
	InvalidProtocolAuthority
	InvalidMarketAuthority

	// Oracle.
	InvalidPythOracleAccount
	InvalidChaosOracleAccount
	InvalidOracleFeedId
	OracleRateTooOld
	OracleRateRelativeConfidenceTooLow
	NegativeOracleRate
	OracleRateIsNull
)

var kindNames = map[Kind]string{
	MathOverflow:                          "MathOverflow",
	AdditionOverflow:                      "AdditionOverflow",
	SubtractionOverflow:                   "SubtractionOverflow",
	MultiplicationOverflow:                "MultiplicationOverflow",
	DivisionOverflow:                      "DivisionOverflow",
	DivisionByZero:                        "DivisionByZero",
	CastOverflow:                          "CastOverflow",
	InvalidExpArg:                         "InvalidExpArg",
	MaxLtvReached:                         "MaxLtvReached",
	MaxUtilisationRateReached:             "MaxUtilisationRateReached",
	MaxSupplyReached:                      "MaxSupplyReached",
	InvalidLtvConfig:                      "InvalidLtvConfig",
	InvalidCurve:                          "InvalidCurve",
	InvalidMaxUtilisationRate:             "InvalidMaxUtilisationRate",
	InvalidLiquidationLtvShouldDecrease:   "InvalidLiquidationLtvShouldDecrease",
	FailedToLoadAccount:                   "FailedToLoadAccount",
	WithdrawalExceedsReserves:             "WithdrawalExceedsReserves",
	WithdrawalExceedsDeposited:            "WithdrawalExceedsDeposited",
	RepayExceedsBorrowed:                  "RepayExceedsBorrowed",
	LiquidationDidNotMeetRequirements:     "LiquidationDidNotMeetRequirements",
	FeeTooHigh:                            "FeeTooHigh",
	SharesOverflow:                        "SharesOverflow",
	InvalidNomination:                     "InvalidNomination",
	CantModifySharePriceIfZeroShares:      "CantModifySharePriceIfZeroShares",
	NegativeInterestRate:                  "NegativeInterestRate",
	CannotSocializeDebtForHealthyPosition: "CannotSocializeDebtForHealthyPosition",
	UnsupportedMintDecimals:               "UnsupportedMintDecimals",
	PositionIsHealthy:                     "PositionIsHealthy",
	InvalidProtocolAuthority:              "InvalidProtocolAuthority",
	InvalidMarketAuthority:                "InvalidMarketAuthority",
	InvalidPythOracleAccount:              "InvalidPythOracleAccount",
	InvalidChaosOracleAccount:             "InvalidChaosOracleAccount",
	InvalidOracleFeedId:                   "InvalidOracleFeedId",
	OracleRateTooOld:                      "OracleRateTooOld",
	OracleRateRelativeConfidenceTooLow:    "OracleRateRelativeConfidenceTooLow",
	NegativeOracleRate:                    "NegativeOracleRate",
	OracleRateIsNull:                      "OracleRateIsNull",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Frame is a single call-site captured as an error propagates, the
// idiomatic stand-in for the source's #[track_caller] location.
type Frame struct {
	File string
	Line int
	Func string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d (%s)", f.File, f.Line, f.Func)
}

// Error is the core's error value: a Kind plus the trail of call sites
// it passed through. It is never recovered from inside the core — every
// operation that produces one aborts and returns it verbatim.
type Error struct {
	Kind  Kind
	Stack []Frame
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error = %s, stack = [", e.Kind)
	for i, f := range e.Stack {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.String())
	}
	b.WriteString("]")
	return b.String()
}

// Is reports whether e carries the given Kind.
func (e *Error) Is(kind Kind) bool {
	return e != nil && e.Kind == kind
}

func captureFrame(skip int) Frame {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Frame{File: "unknown", Line: 0, Func: "unknown"}
	}
	fn := runtime.FuncForPC(pc)
	name := "unknown"
	if fn != nil {
		name = fn.Name()
	}
	return Frame{File: file, Line: line, Func: name}
}

// New builds an Error for kind, capturing the caller of New as the first
// stack frame. This is the equivalent of the source's
// ErrorWithStack::new / the blanket `impl<T> From<T> for ErrorWithStack<T>`.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Stack: []Frame{captureFrame(1)}}
}

// Track appends the caller of Track to err's stack and returns err,
// mirroring the source's StackTrace::track_caller() used at every `?`
// propagation boundary. A nil err is returned unchanged.
func Track(err error) error {
	if err == nil {
		return nil
	}
	le, ok := err.(*Error)
	if !ok {
		return err
	}
	le.Stack = append(le.Stack, captureFrame(1))
	return le
}

// WithContext wraps kind into an *Error whose first stack frame is the
// caller of WithContext, mirroring the source's with_context!/map_context!
// macros used at the point an error value is first constructed from an
// option/condition rather than propagated from another LendingResult.
func WithContext(kind Kind) *Error {
	return &Error{Kind: kind, Stack: []Frame{captureFrame(1)}}
}

// KindOf extracts the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	le, ok := err.(*Error)
	if !ok || le == nil {
		return 0, false
	}
	return le.Kind, true
}
