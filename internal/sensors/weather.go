package sensors

import (
	"net/http"
	"time"

	owm "github.com/briandowns/openweathermap"

	"github.com/poldi1405/eruption/internal/logx"
)

var weatherLog = logx.For("sensors[weather]")

// WeatherProvider polls openweathermap.org for the current temperature at
// a fixed location. It's an auxiliary sensor beyond the usual set
// (audio, cpu/mem, time-of-day); the hub itself places no cap on what
// providers register.
type WeatherProvider struct {
	APIKey   string
	Unit     string // "C", "F", or "K"
	Location string
	Interval time.Duration
}

func (p *WeatherProvider) Name() string { return "weather.temperature" }

func (p *WeatherProvider) Period() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return 5 * time.Minute
}

func (p *WeatherProvider) Run(stop <-chan struct{}, publish func(Value)) {
	weather, err := owm.NewCurrent(p.Unit, "EN", p.APIKey)
	if err != nil {
		weatherLog.Warn("create weather client failed, weather sensor disabled", "err", err)
		return
	}

	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	for {
		if err := weather.CurrentByName(p.Location); err != nil {
			weatherLog.Warn("fetch weather failed", "err", err)
		} else if weather.Cod != 200 {
			weatherLog.Warn("weather report error", "status", http.StatusText(weather.Cod), "code", weather.Cod)
		} else {
			publish(Value{Kind: KindScalar, Scalar: weather.Main.Temp})
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
