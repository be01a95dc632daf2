package sensors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockProviderPublishesFractionOfDayInRange(t *testing.T) {
	p := &ClockProvider{Interval: time.Hour}
	stop := make(chan struct{})
	got := make(chan Value, 1)

	go p.Run(stop, func(v Value) { got <- v })
	select {
	case v := <-got:
		assert.GreaterOrEqual(t, v.Scalar, 0.0)
		assert.Less(t, v.Scalar, 1.0)
	case <-time.After(time.Second):
		t.Fatal("clock provider never published")
	}
	close(stop)
}

func TestClockProviderDefaultPeriodIsOneSecond(t *testing.T) {
	p := &ClockProvider{}
	assert.Equal(t, time.Second, p.Period())
}
