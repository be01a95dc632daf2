//go:build linux

package sensors

import (
	"math"
	"time"

	linuxproc "github.com/c9s/goprocinfo/linux"

	"github.com/poldi1405/eruption/internal/logx"
)

var cpuLog = logx.For("sensors[cpu]")

// CPUProvider samples overall CPU utilization from /proc/stat using a
// delta-of-idle-ticks technique, reporting just the CPU% column since
// memory gets its own provider (MemProvider) instead of being bundled
// into one combined result.
type CPUProvider struct {
	Interval time.Duration
}

func (p *CPUProvider) Name() string { return "cpu" }

func (p *CPUProvider) Period() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Second
}

func (p *CPUProvider) Run(stop <-chan struct{}, publish func(Value)) {
	var prevIdle, prevTotal uint64

	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	for {
		stats, err := linuxproc.ReadStat("/proc/stat")
		if err != nil {
			cpuLog.Warn("read /proc/stat failed", "err", err)
		} else {
			all := stats.CPUStatAll
			idle := all.Idle + all.IOWait
			nonIdle := all.User + all.Nice + all.System + all.IRQ + all.SoftIRQ + all.Steal
			total := idle + nonIdle

			if prevIdle != 0 && prevTotal != 0 && total != prevTotal {
				load := math.Max(float64(total-prevTotal-(idle-prevIdle))/float64(total-prevTotal), 0)
				publish(Value{Kind: KindScalar, Scalar: load})
			}
			prevIdle, prevTotal = idle, total
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// MemProvider samples memory utilization from /proc/meminfo.
type MemProvider struct {
	Interval time.Duration
}

func (p *MemProvider) Name() string { return "mem" }

func (p *MemProvider) Period() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Second
}

func (p *MemProvider) Run(stop <-chan struct{}, publish func(Value)) {
	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	for {
		info, err := linuxproc.ReadMemInfo("/proc/meminfo")
		if err != nil {
			cpuLog.Warn("read /proc/meminfo failed", "err", err)
		} else if info.MemTotal > 0 {
			used := math.Max(float64(info.MemTotal-info.MemAvailable)/float64(info.MemTotal), 0)
			publish(Value{Kind: KindScalar, Scalar: used})
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
