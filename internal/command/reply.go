package command

import "github.com/kcutter/gocut/internal/wire"

// parseReply decodes a reply body (already stripped of its length byte)
// according to which command it answers. All multi-byte reply fields are
// big-endian on the wire, unlike the little-endian move/cut payload.
func parseReply(wireCmd byte, body []byte) (any, error) {
	switch wireCmd {
	case cmdBounds:
		return &BoundsReply{
			XMin: wire.ReadU16BE(body[0:]),
			YMin: wire.ReadU16BE(body[2:]),
			XMax: wire.ReadU16BE(body[4:]),
			YMax: wire.ReadU16BE(body[6:]),
		}, nil
	case cmdVersion:
		return &VersionReply{
			Model: wire.ReadU16BE(body[0:]),
			Major: wire.ReadU16BE(body[2:]),
			Minor: wire.ReadU16BE(body[4:]),
		}, nil
	case cmdStatus:
		return &StatusReply{
			CartridgeLoaded: wire.ReadU16BE(body[0:]) != 0,
			MatLoaded:       wire.ReadU16BE(body[2:]) != 0,
		}, nil
	case cmdCartridge:
		return parseCartridgeReply(body)
	case cmdMoveCut:
		return append([]byte(nil), body...), nil
	default:
		return nil, errSubCmdRange(-1)
	}
}

// parseCartridgeReply mirrors the reference layout: u16 present, u16
// nameLen, then nameLen bytes of ASCII name, then one version byte at
// offset 4+nameLen — one byte past the name, per Open Question (a) in
// DESIGN.md. We follow the implemented offsets, not the comment that
// disagrees with them.
func parseCartridgeReply(body []byte) (*CartridgeReply, error) {
	if len(body) < 4 {
		return nil, &ReplyIOError{Cmd: cmdCartridge, Wanted: 4, Got: len(body), Partial: true}
	}
	present := wire.ReadU16BE(body[0:]) != 0
	nameLen := int(wire.ReadU16BE(body[2:]))
	if 4+nameLen >= len(body) {
		return &CartridgeReply{Present: present, Name: "ERROR", Version: 0}, nil
	}
	name := string(body[4 : 4+nameLen])
	// The name field is NUL-padded; trim at the first terminator.
	for i, c := range []byte(name) {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	version := body[4+nameLen]
	return &CartridgeReply{Present: present, Name: name, Version: version}, nil
}
