package main

import (
	"github.com/poldi1405/eruption/internal/sensors"
)

// buildSensorHub registers the always-on providers (cpu, mem, time-of-day)
// plus whichever optional ones cfg enables, and returns the hub unstarted;
// the caller is responsible for Start/Stop.
func buildSensorHub(cfg SensorsConfig) *sensors.Hub {
	hub := sensors.NewHub()

	hub.Register(&sensors.CPUProvider{})
	hub.Register(&sensors.MemProvider{})
	hub.Register(&sensors.ClockProvider{})

	if cfg.Audio != nil {
		hub.Register(&sensors.AudioProvider{Bands: cfg.Audio.Bands})
	}
	if cfg.GPU != nil {
		hub.Register(sensors.NewGPUUtilizationProvider(cfg.GPU.DeviceIndex, 0))
		hub.Register(sensors.NewGPUTemperatureProvider(cfg.GPU.DeviceIndex, 0))
	}
	if cfg.Weather != nil {
		hub.Register(&sensors.WeatherProvider{
			APIKey:   cfg.Weather.APIKey,
			Unit:     cfg.Weather.Unit,
			Location: cfg.Weather.Location,
			Interval: cfg.Weather.Interval,
		})
	}
	if cfg.Mail != nil {
		hub.Register(&sensors.MailProvider{
			CredentialsPath: cfg.Mail.CredentialsPath,
			Label:           cfg.Mail.Label,
			Interval:        cfg.Mail.Interval,
		})
	}

	return hub
}
