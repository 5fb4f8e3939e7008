package command

import (
	"github.com/kcutter/gocut/internal/wire"
	"github.com/kcutter/gocut/internal/xxtea"
)

// Command byte values. These eight are the entire vocabulary the plotter
// understands; anything else is rejected before it reaches the wire.
const (
	cmdStartTxn  byte = 0x21
	cmdEndTxn    byte = 0x22
	cmdBounds    byte = 0x11
	cmdVersion   byte = 0x12
	cmdStatus    byte = 0x14
	cmdCartridge byte = 0x18
	cmdMoveCut   byte = 0x40
)

// SubCmd selects both the motion kind and the XXTEA key index for a
// move/cut frame.
type SubCmd byte

const (
	SubCmdLine  SubCmd = 0 // straight cut to (x,y), SVG L
	SubCmdCurve SubCmd = 1 // one word of a Bézier control/endpoint sequence
	SubCmdMove  SubCmd = 2 // pen-up move to (x,y), SVG M and the eject
)

// maxSubCmd is the highest subCmd value the device's key table defines.
// Only 0-2 carry defined motion semantics; 3-7 are reserved but still
// wire-valid, matching g_cmd_keys' 8 entries.
const maxSubCmd SubCmd = 7

// replyLen gives the expected reply length (including the length byte
// itself is NOT counted; this is the value carried in that byte) for each
// command that expects one. Commands absent here expect no reply.
var replyLen = map[byte]int{
	cmdBounds:    8,
	cmdVersion:   6,
	cmdStatus:    4,
	cmdCartridge: 38,
	cmdMoveCut:   4,
}

// buildFrame assembles [length][cmd][payload...] for a command taking no
// argument payload (Start, End, Status, Version, Bounds, Cartridge). The
// wire length byte is 4: it counts the command byte plus three bytes of
// zero padding, regardless of whether a reply follows.
func buildFrame(cmd byte) []byte {
	return []byte{4, cmd, 0, 0, 0}
}

// buildMoveCutFrame assembles the 0x40 frame: noise/x/y packed as
// little-endian u32 words and XXTEA-encrypted under the key selected by
// sub. sub must already be validated to be in [0,7].
func buildMoveCutFrame(sub SubCmd, x, y uint16, noise uint32) []byte {
	words := []uint32{noise, uint32(x), uint32(y)}
	xxtea.Encode(words, 3, xxtea.CmdKeys[sub])

	frame := make([]byte, 14)
	frame[0] = 13 // length: cmd byte + 12 payload bytes
	frame[1] = cmdMoveCut
	for i, w := range words {
		wire.WriteU32LE(frame[2+i*4:], w)
	}
	return frame
}

// decryptMoveCutPlaintext reverses buildMoveCutFrame's encryption, used only
// by tests that need to assert what was actually sent on the wire.
func decryptMoveCutPlaintext(payload []byte, sub SubCmd) (noise, x, y uint32) {
	words := make([]uint32, 3)
	for i := range words {
		words[i] = wire.ReadU32LE(payload[i*4:])
	}
	xxtea.Decode(words, 3, xxtea.CmdKeys[sub])
	return words[0], words[1], words[2]
}
