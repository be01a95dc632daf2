package sensors

import (
	"time"

	"gitlab.com/Drauthius/gpu-monitoring-tools/bindings/go/nvml"

	"github.com/poldi1405/eruption/internal/logx"
)

var gpuLog = logx.For("sensors[gpu]")

// GPUProvider publishes one NVML metric (utilization or temperature) for
// one GPU as a sensor scalar. Each metric gets its own
// provider name since the hub's Value type carries one number per
// sensor, so scripts read whichever they need independently.
type GPUProvider struct {
	DeviceIndex int
	Interval    time.Duration
	metric      func(nvml.DeviceStatus) float64
	name        string
}

// NewGPUUtilizationProvider publishes GPU core utilization in [0,1].
func NewGPUUtilizationProvider(deviceIndex int, interval time.Duration) *GPUProvider {
	return &GPUProvider{
		DeviceIndex: deviceIndex,
		Interval:    interval,
		name:        "gpu.utilization",
		metric:      func(s nvml.DeviceStatus) float64 { return float64(*s.Utilization.GPU) / 100 },
	}
}

// NewGPUTemperatureProvider publishes GPU die temperature in Celsius.
func NewGPUTemperatureProvider(deviceIndex int, interval time.Duration) *GPUProvider {
	return &GPUProvider{
		DeviceIndex: deviceIndex,
		Interval:    interval,
		name:        "gpu.temperature",
		metric:      func(s nvml.DeviceStatus) float64 { return float64(*s.Temperature) },
	}
}

func (p *GPUProvider) Name() string { return p.name }

func (p *GPUProvider) Period() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Second
}

func (p *GPUProvider) Run(stop <-chan struct{}, publish func(Value)) {
	if err := nvml.Init(); err != nil {
		gpuLog.Warn("nvml init failed, gpu sensor disabled", "err", err)
		return
	}
	defer nvml.Shutdown()

	device, err := nvml.NewDevice(p.DeviceIndex)
	if err != nil {
		gpuLog.Warn("nvml device open failed, gpu sensor disabled", "err", err)
		return
	}

	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	for {
		status, err := device.Status()
		if err != nil {
			gpuLog.Warn("nvml status read failed", "err", err)
		} else {
			publish(Value{Kind: KindScalar, Scalar: p.metric(*status)})
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
