package hidraw

import (
	"fmt"
	"time"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
)

// Generic report framing constants: a fixed report size with a leading
// message-ID byte, a sub-command byte, and a payload.
const (
	genericReportSize  = 33 // 1 report-id byte + 32 payload bytes, a common HID feature-report size
	genericMsgFrame    = 0xC2
	genericCmdSetChunk = 0x01
	genericCmdCommit   = 0x02
	genericCmdOff      = 0x03
)

// GenericGridCodec speaks a simple, device-agnostic per-key RGB protocol:
// every LED is 3 payload bytes (R, G, B — alpha is not wire-visible, it
// only matters up to the compositor), chunked across fixed-size reports
// in row-major order, followed by a one-byte commit report. It's the
// reference Codec new device support starts from; a real model typically
// needs its own Codec matching its firmware's actual report layout.
type GenericGridCodec struct {
	Rows, Columns int
	ReportID      byte
}

func (c *GenericGridCodec) ledCount() int { return c.Rows * c.Columns }

func (c *GenericGridCodec) Topology() adapter.Topology {
	idx := make(map[[2]int]int, c.ledCount())
	i := 0
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Columns; col++ {
			idx[[2]int{r, col}] = i
			i++
		}
	}
	return adapter.Topology{Rows: c.Rows, Columns: c.Columns, Index: idx}
}

func (c *GenericGridCodec) Handshake() [][]byte {
	return nil
}

// EncodeFrame splits frame into fixed-size chunk reports (9 LEDs' worth
// of RGB triples per 32-byte payload) followed by one commit report, in a
// deterministic, fixed order every time.
func (c *GenericGridCodec) EncodeFrame(frame color.Frame) ([][]byte, error) {
	if len(frame) != c.ledCount() {
		return nil, fmt.Errorf("hidraw: generic codec frame length %d != %d", len(frame), c.ledCount())
	}

	const ledsPerChunk = 9 // 4 header bytes + 9*3 = 27 LED bytes, fits the 32-byte budget
	var reports [][]byte

	for start := 0; start < len(frame); start += ledsPerChunk {
		end := start + ledsPerChunk
		if end > len(frame) {
			end = len(frame)
		}

		report := make([]byte, genericReportSize)
		report[0] = c.ReportID
		report[1] = genericMsgFrame
		report[2] = genericCmdSetChunk
		report[3] = byte(start >> 8)
		report[4] = byte(start)
		off := 5
		for _, led := range frame[start:end] {
			report[off] = led.R
			report[off+1] = led.G
			report[off+2] = led.B
			off += 3
		}
		reports = append(reports, report)
	}

	commit := make([]byte, genericReportSize)
	commit[0] = c.ReportID
	commit[1] = genericMsgFrame
	commit[2] = genericCmdCommit
	reports = append(reports, commit)

	return reports, nil
}

// DecodeInput interprets an input report as a single key transition:
// byte 1 is the dense key index, byte 2 is 1=down/0=up. Devices with a
// richer input report need their own Codec.
func (c *GenericGridCodec) DecodeInput(report []byte, ts time.Time) []event.Event {
	if len(report) < 3 {
		return nil
	}
	idx := int(report[1])
	switch report[2] {
	case 1:
		return []event.Event{event.KeyDown("", event.SourceRawHID, idx, ts)}
	case 0:
		return []event.Event{event.KeyUp("", event.SourceRawHID, idx, ts)}
	default:
		return nil
	}
}

func (c *GenericGridCodec) Quiescent() [][]byte {
	off := make([]byte, genericReportSize)
	off[0] = c.ReportID
	off[1] = genericMsgFrame
	off[2] = genericCmdOff
	return [][]byte{off}
}

var _ Codec = (*GenericGridCodec)(nil)
