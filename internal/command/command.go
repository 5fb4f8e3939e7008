// Package command implements the plotter's eight-command request/reply
// vocabulary on top of a paced serial transport: frame marshalling,
// big-endian reply parsing, and the at-most-one-outstanding-reply state
// machine. It replaces the reference client's variadic SendCmd/ReadCmdReply
// pair with a single typed Do(Command) entry point.
package command

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Transport is the minimum surface the command layer needs from a serial
// port: paced writes, a raw read, and a timed drain. serialport.Port
// satisfies this, and tests substitute an in-memory double.
type Transport interface {
	Send([]byte) (int, error)
	Read([]byte) (int, error)
	Drain(time.Duration) ([]byte, error)
}

// Kind identifies which of the eight commands a Command value represents.
type Kind int

const (
	Start Kind = iota
	End
	Status
	Version
	Bounds
	Cartridge
	MoveCut
)

// Command is the tagged-variant request the caller builds and hands to
// Layer.Do. Sub/X/Y are only meaningful when Kind == MoveCut.
type Command struct {
	Kind Kind
	Sub  SubCmd
	X, Y uint16
}

// StatusReply is the 0x14 response.
type StatusReply struct {
	CartridgeLoaded bool
	MatLoaded       bool
}

// VersionReply is the 0x12 response.
type VersionReply struct {
	Model, Major, Minor uint16
}

// BoundsReply is the 0x11 response.
type BoundsReply struct {
	XMin, YMin, XMax, YMax uint16
}

// CartridgeReply is the 0x18 response.
type CartridgeReply struct {
	Present bool
	Name    string
	Version byte
}

// ReplyDrain is the quiet period enforced after every command that expects
// a reply. The device needs this long to be ready for the next command —
// it is a protocol requirement, not a tunable.
const ReplyDrain = 250 * time.Millisecond

// Layer drives one serial connection through the command protocol. It is
// not safe for concurrent use — the protocol itself allows at most one
// outstanding command.
type Layer struct {
	t     Transport
	noise *noiseSource
	log   *logrus.Entry

	lastShortfall *WriteShortError
}

// Option configures a Layer at construction.
type Option func(*Layer)

// WithFixedNoise seeds the noise generator deterministically, for
// reproducible test ciphertexts. A zero seed (the default) uses the
// system CSPRNG instead.
func WithFixedNoise(seed uint32) Option {
	return func(l *Layer) { l.noise = newNoiseSource(seed) }
}

// WithLogger attaches a structured logger; omitting this logs through
// logrus's standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(l *Layer) { l.log = log }
}

// NewLayer wraps t in a command Layer.
func NewLayer(t Transport, opts ...Option) *Layer {
	l := &Layer{t: t, noise: newNoiseSource(0), log: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LastShortfall returns the short-write record of the most recent frame
// sent by Do, or nil if that frame went out whole. A short write is not
// fatal to the session, but callers that care can inspect it after Do
// returns.
func (l *Layer) LastShortfall() *WriteShortError { return l.lastShortfall }

// Do sends cmd, reads its reply if one is expected, and enforces the
// post-reply quiet period. The returned value is one of *StatusReply,
// *VersionReply, *BoundsReply, *CartridgeReply, the raw 4-byte move/cut
// acknowledgement ([]byte), or nil for Start/End.
func (l *Layer) Do(cmd Command) (any, error) {
	frame, wireCmd, err := l.marshal(cmd)
	if err != nil {
		return nil, err
	}

	n, werr := l.t.Send(frame)
	if werr != nil {
		return nil, werr
	}
	if n != len(frame) {
		l.lastShortfall = &WriteShortError{Wanted: len(frame), Got: n}
		l.log.WithFields(logrus.Fields{"cmd": wireCmd, "wanted": len(frame), "got": n}).Warn("short write")
	} else {
		l.lastShortfall = nil
	}

	want, expectsReply := replyLen[wireCmd]
	if !expectsReply {
		return nil, nil
	}

	reply, rerr := l.readReply(wireCmd, want)
	if _, err := l.t.Drain(ReplyDrain); err != nil {
		l.log.WithError(err).Debug("post-reply drain failed")
	}
	if rerr != nil {
		return nil, rerr
	}
	return reply, nil
}

// marshal builds the outbound frame for cmd and returns the wire command
// byte alongside it (distinct from Kind, since MoveCut always maps to
// cmdMoveCut but carries a validated SubCmd).
func (l *Layer) marshal(cmd Command) ([]byte, byte, error) {
	switch cmd.Kind {
	case Start:
		return buildFrame(cmdStartTxn), cmdStartTxn, nil
	case End:
		return buildFrame(cmdEndTxn), cmdEndTxn, nil
	case Status:
		return buildFrame(cmdStatus), cmdStatus, nil
	case Version:
		return buildFrame(cmdVersion), cmdVersion, nil
	case Bounds:
		return buildFrame(cmdBounds), cmdBounds, nil
	case Cartridge:
		return buildFrame(cmdCartridge), cmdCartridge, nil
	case MoveCut:
		if cmd.Sub > maxSubCmd {
			return nil, 0, errSubCmdRange(int(cmd.Sub))
		}
		noise := l.noise.next()
		frame := buildMoveCutFrame(cmd.Sub, cmd.X, cmd.Y, noise)
		return frame, cmdMoveCut, nil
	default:
		return nil, 0, errSubCmdRange(-1)
	}
}

// readReply reads the one-byte length prefix followed by exactly that many
// bytes, then parses it according to wireCmd.
func (l *Layer) readReply(wireCmd byte, want int) (any, error) {
	lenBuf := make([]byte, 1)
	n, err := l.t.Read(lenBuf)
	if err != nil || n < 1 {
		return nil, &ReplyIOError{Cmd: wireCmd}
	}

	got := int(lenBuf[0])
	if got > 255 {
		return nil, errReplyTooLong(got)
	}

	body := make([]byte, got)
	read := 0
	for read < got {
		n, err := l.t.Read(body[read:])
		if err != nil {
			return nil, &ReplyIOError{Cmd: wireCmd, Wanted: got, Got: read, Partial: true}
		}
		if n <= 0 {
			break
		}
		read += n
	}
	if read < got || got < 1 {
		return nil, &ReplyIOError{Cmd: wireCmd, Wanted: got, Got: read, Partial: true}
	}

	_ = want // the declared reply length is informative only; we trust the wire's own prefix
	return parseReply(wireCmd, body)
}
