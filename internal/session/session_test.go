package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kcutter/gocut/internal/drawpath"
)

// mockTransport implements session.Transport: Send/Read/Drain/Close.
type mockTransport struct {
	Sent    [][]byte
	replies [][]byte
	pending []byte
	Drains  []time.Duration
	closed  bool
}

func (m *mockTransport) queueReply(b []byte) { m.replies = append(m.replies, b) }

func (m *mockTransport) Send(b []byte) (int, error) {
	m.Sent = append(m.Sent, append([]byte(nil), b...))
	return len(b), nil
}

func (m *mockTransport) Read(buf []byte) (int, error) {
	if len(m.pending) == 0 {
		if len(m.replies) == 0 {
			return 0, nil
		}
		m.pending = m.replies[0]
		m.replies = m.replies[1:]
	}
	n := copy(buf, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *mockTransport) Drain(d time.Duration) ([]byte, error) {
	m.Drains = append(m.Drains, d)
	return nil, nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func boundsReply() []byte {
	return []byte{0x08, 0x01, 0x3C, 0x00, 0x32, 0x13, 0x62, 0x12, 0x58}
}

func versionReply() []byte {
	return []byte{0x06, 0x00, 0x14, 0x00, 0x02, 0x00, 0x22}
}

func cartridgeReply(loaded bool) []byte {
	body := []byte{0x00, 0x01, 0x00, 0x04, 'C', 'u', 't', 0x00, 0x23}
	return append([]byte{byte(len(body))}, body...)
}

func statusReply(cartridge, mat bool) []byte {
	b := func(x bool) byte {
		if x {
			return 1
		}
		return 0
	}
	return []byte{0x04, 0x00, b(cartridge), 0x00, b(mat)}
}

// A mat already loaded on first poll should skip the pressure wait.
func TestRunSkipsPressureWaitWhenMatAlreadyLoaded(t *testing.T) {
	tr := &mockTransport{}
	tr.queueReply(statusReply(true, true)) // initial status
	tr.queueReply(versionReply())
	tr.queueReply(cartridgeReply(true))
	tr.queueReply(statusReply(true, true)) // waitForMat's own poll
	tr.queueReply(boundsReply())

	var slept []time.Duration
	s := New(tr, Config{Eject: false, MatPollEvery: time.Millisecond}, withSleep(func(d time.Duration) {
		slept = append(slept, d)
	}))

	info, err := s.Run(nil)
	require.NoError(t, err)
	require.True(t, tr.closed)
	require.Equal(t, 1, info.MatPolls)
	require.Empty(t, slept, "no pressure wait when mat was already loaded")
}

// Quick mode must skip the pressure wait even on a freshly loaded mat.
func TestRunSkipsPressureWaitInQuickMode(t *testing.T) {
	tr := &mockTransport{}
	tr.queueReply(statusReply(true, false))
	tr.queueReply(versionReply())
	tr.queueReply(cartridgeReply(true))
	tr.queueReply(statusReply(true, false))
	tr.queueReply(statusReply(true, true))
	tr.queueReply(boundsReply())

	var slept []time.Duration
	s := New(tr, Config{Eject: false, Quick: true, MatPollEvery: time.Millisecond}, withSleep(func(d time.Duration) {
		slept = append(slept, d)
	}))

	_, err := s.Run(nil)
	require.NoError(t, err)
	for _, d := range slept {
		require.NotEqual(t, 15*time.Second, d)
	}
}

// Ejecting after a cut issues one extra pen-up move to (0,0).
func TestRunEjectsAfterCut(t *testing.T) {
	tr := &mockTransport{}
	tr.queueReply(statusReply(true, true))
	tr.queueReply(versionReply())
	tr.queueReply(cartridgeReply(true))
	tr.queueReply(statusReply(true, true))
	tr.queueReply(boundsReply())
	tr.queueReply([]byte{0x04, 0x00, 0x00, 0x00, 0x00}) // eject move ack

	s := New(tr, Config{Eject: true, Quick: true, MatPollEvery: time.Millisecond})
	doc := &drawpath.Document{Width: 10, Height: 10}
	_, err := s.Run(doc)
	require.NoError(t, err)

	last := tr.Sent[len(tr.Sent)-1]
	require.Equal(t, byte(0x40), last[1])
}

func TestRunPromptsWhileWaitingForMat(t *testing.T) {
	tr := &mockTransport{}
	tr.queueReply(statusReply(true, false))
	tr.queueReply(versionReply())
	tr.queueReply(cartridgeReply(true))
	tr.queueReply(statusReply(true, false))
	tr.queueReply(statusReply(true, false))
	tr.queueReply(statusReply(true, true))
	tr.queueReply(boundsReply())

	var prompts []int
	s := New(tr, Config{Eject: false, Quick: true, MatPollEvery: time.Millisecond},
		WithPrompt(func(attempt int) { prompts = append(prompts, attempt) }),
		withSleep(func(time.Duration) {}),
	)

	_, err := s.Run(nil)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, prompts)
}
