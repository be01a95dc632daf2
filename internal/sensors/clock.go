package sensors

import "time"

// ClockProvider publishes the fraction of the day elapsed so far, in
// [0,1), a minimal time-of-day sensor for scripts' clock helpers.
type ClockProvider struct {
	Interval time.Duration
}

func (p *ClockProvider) Name() string { return "clock.time_of_day" }

func (p *ClockProvider) Period() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Second
}

func (p *ClockProvider) Run(stop <-chan struct{}, publish func(Value)) {
	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	sample := func() {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		frac := now.Sub(midnight).Seconds() / (24 * 3600)
		publish(Value{Kind: KindScalar, Scalar: frac})
	}

	sample()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sample()
		}
	}
}
