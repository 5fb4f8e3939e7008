package cutcompiler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kcutter/gocut/internal/command"
	"github.com/kcutter/gocut/internal/drawpath"
	"github.com/kcutter/gocut/internal/wire"
	"github.com/kcutter/gocut/internal/xxtea"
)

// mockTransport is a minimal command.Transport double. Every move/cut send
// gets a canned 4-byte acknowledgement.
type mockTransport struct {
	Sent   [][]byte
	Drains []time.Duration
	pend   []byte
}

func (m *mockTransport) Send(b []byte) (int, error) {
	m.Sent = append(m.Sent, append([]byte(nil), b...))
	m.pend = []byte{0x04, 0x00, 0x00, 0x00, 0x00}
	return len(b), nil
}

func (m *mockTransport) Read(buf []byte) (int, error) {
	n := copy(buf, m.pend)
	m.pend = m.pend[n:]
	return n, nil
}

func (m *mockTransport) Drain(d time.Duration) ([]byte, error) {
	m.Drains = append(m.Drains, d)
	return nil, nil
}

// S3: a single line cut scales and emits exactly one subCmd-0 frame.
func TestCutDrawSetLine(t *testing.T) {
	tr := &mockTransport{}
	layer := command.NewLayer(tr, command.WithFixedNoise(1))
	c := NewCompiler(layer, tr, Config{Intercommand: 50 * time.Millisecond, Intercurve: 5 * time.Millisecond})
	require.NoError(t, c.SetScaling(0, 0, 1000, 1000))

	doc := &drawpath.Document{Width: 100, Height: 100}
	set := drawpath.DrawSet{
		{Kind: drawpath.Move, Points: [3]drawpath.Point{{X: 0, Y: 0}}},
		{Kind: drawpath.Line, Points: [3]drawpath.Point{{X: 50, Y: 50}}},
	}

	n, err := c.CutDrawSet(doc, set)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, tr.Sent, 2)

	// Second frame is the line: scaled (50,50) in a 100x100 canvas onto a
	// 1000x1000 extent is (500, 500).
	_, x, y := decryptFrame(tr.Sent[1], command.SubCmdLine)
	require.Equal(t, uint32(500), x)
	require.Equal(t, uint32(500), y)
}

// S4 + invariant 7: a cubic op expands to exactly four subCmd-1 frames, with
// intercurve drains between the first three and intercommand after the
// fourth.
func TestCutDrawSetCubicExpandsToFourFrames(t *testing.T) {
	tr := &mockTransport{}
	// The compiler's pacing drains go to a separate double so they are not
	// interleaved with the command layer's own post-reply drains on tr.
	port := &mockTransport{}
	layer := command.NewLayer(tr, command.WithFixedNoise(1))
	cfg := Config{Intercommand: 50 * time.Millisecond, Intercurve: 5 * time.Millisecond}
	c := NewCompiler(layer, port, cfg)
	require.NoError(t, c.SetScaling(0, 0, 100, 100))

	doc := &drawpath.Document{Width: 100, Height: 100}
	set := drawpath.DrawSet{
		{Kind: drawpath.Move, Points: [3]drawpath.Point{{X: 10, Y: 10}}},
		{
			Kind: drawpath.Cubic,
			Points: [3]drawpath.Point{
				{X: 20, Y: 20}, // ctl1
				{X: 30, Y: 30}, // ctl2
				{X: 40, Y: 40}, // end
			},
		},
	}

	n, err := c.CutDrawSet(doc, set)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// 1 move frame + 4 curve frames.
	require.Len(t, tr.Sent, 5)

	_, x0, y0 := decryptFrame(tr.Sent[1], command.SubCmdCurve)
	require.Equal(t, uint32(10), x0, "first curve frame repeats the current point")
	require.Equal(t, uint32(10), y0)

	_, x1, y1 := decryptFrame(tr.Sent[2], command.SubCmdCurve)
	require.Equal(t, uint32(20), x1)
	require.Equal(t, uint32(20), y1)

	_, x2, y2 := decryptFrame(tr.Sent[3], command.SubCmdCurve)
	require.Equal(t, uint32(30), x2)
	require.Equal(t, uint32(30), y2)

	_, x3, y3 := decryptFrame(tr.Sent[4], command.SubCmdCurve)
	require.Equal(t, uint32(40), x3)
	require.Equal(t, uint32(40), y3)

	// Drains recorded by the compiler itself: move(intercommand), then
	// curve1/2/3(intercurve), curve4(intercommand).
	require.Len(t, port.Drains, 5)
	require.Equal(t, cfg.Intercommand, port.Drains[0])
	require.Equal(t, cfg.Intercurve, port.Drains[1])
	require.Equal(t, cfg.Intercurve, port.Drains[2])
	require.Equal(t, cfg.Intercurve, port.Drains[3])
	require.Equal(t, cfg.Intercommand, port.Drains[4])
}

func TestSetScalingRejectsZeroExtent(t *testing.T) {
	c := NewCompiler(command.NewLayer(&mockTransport{}), nil, DefaultConfig())
	err := c.SetScaling(0, 0, 0, 10)
	require.Error(t, err)
	var serr *ScalingUnsetError
	require.True(t, errors.As(err, &serr))
}

func TestCutDrawSetRequiresScaling(t *testing.T) {
	c := NewCompiler(command.NewLayer(&mockTransport{}), nil, DefaultConfig())
	doc := &drawpath.Document{Width: 10, Height: 10}
	_, err := c.CutDrawSet(doc, drawpath.DrawSet{{Kind: drawpath.Move, Points: [3]drawpath.Point{{X: 0, Y: 0}}}})
	require.Error(t, err)
}

func TestCutAllDrawSetsDrainsSixIntercommandFirst(t *testing.T) {
	tr := &mockTransport{}
	layer := command.NewLayer(tr, command.WithFixedNoise(1))
	cfg := Config{Intercommand: 10 * time.Millisecond, Intercurve: time.Millisecond}
	c := NewCompiler(layer, tr, cfg)
	require.NoError(t, c.SetScaling(0, 0, 10, 10))

	doc := &drawpath.Document{
		Width: 10, Height: 10,
		DrawSets: []drawpath.DrawSet{
			{{Kind: drawpath.Move, Points: [3]drawpath.Point{{X: 0, Y: 0}}}},
		},
	}

	n, err := c.CutAllDrawSets(doc)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 6*cfg.Intercommand, tr.Drains[0])
}

// decryptFrame reverses the XXTEA encryption the compiler's move/cut frames
// carry, mirroring command.decryptMoveCutPlaintext. The key index is not
// on the wire, so the caller must supply the SubCmd it expects.
func decryptFrame(frame []byte, sub command.SubCmd) (noise, x, y uint32) {
	payload := frame[2:]
	words := make([]uint32, 3)
	for i := range words {
		words[i] = wire.ReadU32LE(payload[i*4:])
	}
	xxtea.Decode(words, 3, xxtea.CmdKeys[sub])
	return words[0], words[1], words[2]
}
