package interestrate

// FixedCurve always returns the same configured rate regardless of
// utilisation or elapsed time.
type FixedCurve struct {
	Rate RatePerSecond
}

// NewFixedCurve returns a FixedCurve pinned at rate.
func NewFixedCurve(rate RatePerSecond) *FixedCurve {
	return &FixedCurve{Rate: rate}
}

func (c *FixedCurve) Kind() Kind { return KindFixed }

func (c *FixedCurve) BorrowRatePerSecond(BorrowRateParams) (RatePerSecond, error) {
	return c.Rate, nil
}

func (c *FixedCurve) Validate() error { return nil }
