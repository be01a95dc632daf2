package sensors

import (
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/poldi1405/eruption/internal/logx"
)

var audioLog = logx.For("sensors[audio]")

// audioBufferFrames is the capture buffer size; small enough to keep
// loudness/spectrum samples responsive at the pipeline's tick cadence
// without oversampling audio the scripts never need above LED-refresh
// resolution.
const audioBufferFrames = 1024

// AudioProvider captures the default input device with portaudio and
// publishes a loudness scalar plus a coarse band vector for scripts to
// react to. The bands are mean amplitudes of consecutive slices of the
// sample block (see bandEnergy); no FFT is computed. It's a minimal read contract rather than a full
// audio front-end: no gain control, device selection, or resampling.
type AudioProvider struct {
	SampleRate float64
	Bands      int
}

func (p *AudioProvider) Name() string { return "audio" }

func (p *AudioProvider) Period() time.Duration {
	return time.Duration(float64(audioBufferFrames) / p.sampleRate() * float64(time.Second))
}

func (p *AudioProvider) sampleRate() float64 {
	if p.SampleRate > 0 {
		return p.SampleRate
	}
	return 44100
}

func (p *AudioProvider) bands() int {
	if p.Bands > 0 {
		return p.Bands
	}
	return 8
}

func (p *AudioProvider) Run(stop <-chan struct{}, publish func(Value)) {
	if err := portaudio.Initialize(); err != nil {
		audioLog.Warn("portaudio init failed, audio sensor disabled", "err", err)
		return
	}
	defer portaudio.Terminate()

	in := make([]float32, audioBufferFrames)
	stream, err := portaudio.OpenDefaultStream(1, 0, p.sampleRate(), len(in), in)
	if err != nil {
		audioLog.Warn("open default input stream failed, audio sensor disabled", "err", err)
		return
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		audioLog.Warn("start input stream failed, audio sensor disabled", "err", err)
		return
	}
	defer stream.Stop()

	spectrum := make([]float64, p.bands())

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			audioLog.Debug("read input stream", "err", err)
			continue
		}

		loudness := rmsLoudness(in)
		bandEnergy(in, spectrum)

		publish(Value{Kind: KindSpectrum, Scalar: loudness, Spectrum: append([]float64(nil), spectrum...)})
	}
}

// rmsLoudness computes a normalized root-mean-square loudness in [0,1]
// from a block of signed float32 PCM samples.
func rmsLoudness(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}
	return math.Min(math.Sqrt(sumSquares/float64(len(samples))), 1)
}

// bandEnergy fills out with a coarse, non-FFT energy-per-band estimate
// (mean absolute amplitude of contiguous sample slices). A proper FFT is
// out of scope for this minimal sensor contract; scripts only need
// relative band energy for visualizers, not spectral precision.
func bandEnergy(samples []float32, out []float64) {
	if len(samples) == 0 || len(out) == 0 {
		return
	}
	per := len(samples) / len(out)
	if per == 0 {
		per = 1
	}
	for b := range out {
		start := b * per
		end := start + per
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			out[b] = 0
			continue
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += math.Abs(float64(s))
		}
		out[b] = sum / float64(end-start)
	}
}
