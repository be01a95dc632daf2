package hidraw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
)

func TestGenericGridCodecTopologyIsRowMajor(t *testing.T) {
	c := &GenericGridCodec{Rows: 2, Columns: 3}
	topo := c.Topology()
	assert.Equal(t, 0, topo.Index[[2]int{0, 0}])
	assert.Equal(t, 2, topo.Index[[2]int{0, 2}])
	assert.Equal(t, 3, topo.Index[[2]int{1, 0}])
	assert.Equal(t, 5, topo.Index[[2]int{1, 2}])
}

func TestGenericGridCodecEncodeFrameChunksAndCommits(t *testing.T) {
	c := &GenericGridCodec{Rows: 1, Columns: 15, ReportID: 0x01}
	frame := make(color.Frame, 15)
	for i := range frame {
		frame[i] = color.Opaque(byte(i), byte(i), byte(i))
	}

	reports, err := c.EncodeFrame(frame)
	require.NoError(t, err)
	// 15 LEDs at 9/chunk -> 2 chunk reports + 1 commit report.
	require.Len(t, reports, 3)

	assert.Equal(t, byte(genericCmdSetChunk), reports[0][2])
	assert.Equal(t, byte(genericCmdSetChunk), reports[1][2])
	assert.Equal(t, byte(genericCmdCommit), reports[2][2])

	// First chunk starts at LED 0: R,G,B of LED 0 sit right after the header.
	assert.Equal(t, byte(0), reports[0][5])
	assert.Equal(t, byte(0), reports[0][6])
	assert.Equal(t, byte(0), reports[0][7])
}

func TestGenericGridCodecEncodeFrameRejectsWrongLength(t *testing.T) {
	c := &GenericGridCodec{Rows: 1, Columns: 4}
	_, err := c.EncodeFrame(make(color.Frame, 3))
	assert.Error(t, err)
}

func TestGenericGridCodecDecodeInputKeyDownAndUp(t *testing.T) {
	c := &GenericGridCodec{Rows: 1, Columns: 4}
	now := time.Now()

	down := c.DecodeInput([]byte{0x00, 5, 1}, now)
	require.Len(t, down, 1)
	assert.Equal(t, event.KindKeyDown, down[0].Kind)
	assert.Equal(t, 5, down[0].KeyIndex)

	up := c.DecodeInput([]byte{0x00, 5, 0}, now)
	require.Len(t, up, 1)
	assert.Equal(t, event.KindKeyUp, up[0].Kind)
}

func TestGenericGridCodecDecodeInputIgnoresShortReports(t *testing.T) {
	c := &GenericGridCodec{}
	assert.Nil(t, c.DecodeInput([]byte{0x00}, time.Now()))
}

func TestGenericGridCodecQuiescentTurnsOff(t *testing.T) {
	c := &GenericGridCodec{ReportID: 0x02}
	reports := c.Quiescent()
	require.Len(t, reports, 1)
	assert.Equal(t, byte(genericCmdOff), reports[0][2])
	assert.Equal(t, byte(0x02), reports[0][0])
}
