// Package cutcompiler walks a drawpath.Document's draw sets and emits the
// ordered move/cut command sequence that reproduces them on the plotter,
// scaling SVG-space coordinates into device space and pacing each
// sub-command with the protocol's required quiet periods.
package cutcompiler

import (
	"fmt"
	"time"

	"github.com/kcutter/gocut/internal/command"
	"github.com/kcutter/gocut/internal/drawpath"
)

// Config holds the tunable pacing knobs. These are wire-level contracts
// bounded from below by the device's timing requirements, not performance
// knobs — see DESIGN.md.
type Config struct {
	Intercommand time.Duration // drain after every command that causes motion
	Intercurve   time.Duration // drain between the four words of one Bézier frame
}

// DefaultConfig matches the reference client's defaults.
func DefaultConfig() Config {
	return Config{
		Intercommand: 100 * time.Millisecond,
		Intercurve:   5 * time.Millisecond,
	}
}

// drainer is the subset of serialport.Port/command.Transport the compiler
// needs directly for its own pacing drains (the command layer already
// drains 250ms after each reply; this adds the compiler's own intercommand
// and intercurve waits on top).
type drainer interface {
	Drain(time.Duration) ([]byte, error)
}

// Compiler scales and walks DrawSets, issuing move/cut commands through a
// command.Layer.
type Compiler struct {
	layer *command.Layer
	port  drainer
	cfg   Config

	originX, originY int
	extentW, extentH int
	scalingSet       bool

	lastX, lastY uint16
}

// NewCompiler builds a Compiler. port is used only for the compiler's own
// pacing drains; layer is used for every command send/reply.
func NewCompiler(layer *command.Layer, port drainer, cfg Config) *Compiler {
	return &Compiler{layer: layer, port: port, cfg: cfg}
}

// SetScaling fixes the affine transform from SVG space to device space for
// subsequent cuts: origin (originX, originY) plus extent (extentW, extentH).
// It is a fatal client-side error (ScalingUnsetError) to cut with a zero
// extent — the caller should treat that as a programmer error, not retry.
func (c *Compiler) SetScaling(originX, originY, extentW, extentH int) error {
	if extentW == 0 || extentH == 0 {
		return &ScalingUnsetError{Width: extentW, Height: extentH}
	}
	c.originX, c.originY = originX, originY
	c.extentW, c.extentH = extentW, extentH
	c.scalingSet = true
	c.lastX, c.lastY = clampU16(originX), clampU16(originY)
	return nil
}

// ScalingUnsetError reports that CutDrawSet/CutAllDrawSets was asked to
// scale against a zero-area canvas.
type ScalingUnsetError struct {
	Width, Height int
}

func (e *ScalingUnsetError) Error() string {
	return fmt.Sprintf("cutcompiler: zero canvas extent (%d x %d)", e.Width, e.Height)
}

// scalePoint maps an SVG-space point into device-space (x,y), truncating
// toward zero as the reference implementation does with integer division.
func (c *Compiler) scalePoint(p drawpath.Point, canvasW, canvasH int) (uint16, uint16) {
	x := c.originX + int((p.X/float64(canvasW))*float64(c.extentW))
	y := c.originY + int((p.Y/float64(canvasH))*float64(c.extentH))
	return clampU16(x), clampU16(y)
}

func clampU16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// CutDrawSet cuts one draw set from doc, scaling against doc's canvas size.
// It returns the number of ops executed and stops at the first command
// failure.
func (c *Compiler) CutDrawSet(doc *drawpath.Document, set drawpath.DrawSet) (int, error) {
	if !c.scalingSet {
		return 0, &ScalingUnsetError{}
	}
	if doc.Width == 0 || doc.Height == 0 {
		return 0, &ScalingUnsetError{Width: doc.Width, Height: doc.Height}
	}
	executed := 0
	for _, op := range set {
		switch op.Kind {
		case drawpath.Move:
			x, y := c.scalePoint(op.Points[0], doc.Width, doc.Height)
			if err := c.moveCut(command.SubCmdMove, x, y, c.cfg.Intercommand); err != nil {
				return executed, err
			}
		case drawpath.Line:
			x, y := c.scalePoint(op.Points[0], doc.Width, doc.Height)
			if err := c.moveCut(command.SubCmdLine, x, y, c.cfg.Intercommand); err != nil {
				return executed, err
			}
		case drawpath.Cubic:
			ctl1X, ctl1Y := c.scalePoint(op.Points[0], doc.Width, doc.Height)
			ctl2X, ctl2Y := c.scalePoint(op.Points[1], doc.Width, doc.Height)
			endX, endY := c.scalePoint(op.Points[2], doc.Width, doc.Height)

			// Four subCmd-1 frames in order: the current point repeated,
			// then both control points, then the endpoint. Only the last
			// frame gets the full intercommand drain; the first three only
			// need intercurve spacing.
			frames := [4][2]uint16{
				{c.lastX, c.lastY},
				{ctl1X, ctl1Y},
				{ctl2X, ctl2Y},
				{endX, endY},
			}
			for i, f := range frames {
				drain := c.cfg.Intercurve
				if i == len(frames)-1 {
					drain = c.cfg.Intercommand
				}
				if err := c.moveCut(command.SubCmdCurve, f[0], f[1], drain); err != nil {
					return executed, err
				}
			}
		default:
			return executed, fmt.Errorf("cutcompiler: unhandled op kind %v", op.Kind)
		}
		executed++
	}
	return executed, nil
}

// moveCut issues one 0x40 frame and then drains for the given pacing
// interval on top of the command layer's own 250ms post-reply drain.
func (c *Compiler) moveCut(sub command.SubCmd, x, y uint16, drain time.Duration) error {
	_, err := c.layer.Do(command.Command{Kind: command.MoveCut, Sub: sub, X: x, Y: y})
	if err != nil {
		return err
	}
	c.lastX, c.lastY = x, y
	if c.port != nil {
		c.port.Drain(drain)
	}
	return nil
}

// CutAllDrawSets cuts every draw set in doc in definition order, draining
// 6×Intercommand before the first cut, and stopping at the first failing
// set.
func (c *Compiler) CutAllDrawSets(doc *drawpath.Document) (int, error) {
	if c.port != nil {
		c.port.Drain(6 * c.cfg.Intercommand)
	}
	cut := 0
	for _, set := range doc.DrawSets {
		if _, err := c.CutDrawSet(doc, set); err != nil {
			return cut, err
		}
		cut++
	}
	return cut, nil
}
