package kst

import (
	"context"
	"fmt"

	"github.com/g960059/kstclient/protocol"
)

type Plot struct{ ViewItem }

// PlotParams places a new plot. With a zero Size the server lays the
// plot out itself; with Columns set it joins a column layout.
type PlotParams struct {
	Pos       Point
	Size      Point
	Columns   int
	Rotation  float64
	FontSize  float64
	FixAspect bool
	Fill      Fill
	Stroke    Stroke
	Name      string
}

func (p PlotParams) placement() protocol.Command {
	switch {
	case p.Columns > 0:
		return protocol.NewCommand("addToCurrentView", "Columns", p.Columns)
	case p.Size == (Point{}):
		return protocol.NewCommand("addToCurrentView", "Auto", 2)
	default:
		return protocol.NewCommand("addToCurrentView", "Protect", 2)
	}
}

func (p PlotParams) settings() []protocol.Command {
	var cmds []protocol.Command
	if p.Size != (Point{}) {
		cmds = append(cmds, posCommands(p.Pos)...)
		cmds = append(cmds, sizeCommands(p.Size)...)
	}
	if p.FontSize != 0 {
		cmds = append(cmds, globalFontCommand("", p.FontSize, false, false))
	}
	cmds = append(cmds, fixAspectCommand(p.FixAspect), protocol.NewCommand("setRotation", p.Rotation))
	cmds = append(cmds, p.Fill.commands()...)
	return append(cmds, p.Stroke.commands()...)
}

func (c *Client) NewPlot(ctx context.Context, p PlotParams) (Plot, error) {
	if p.Columns < 0 {
		return Plot{}, fmt.Errorf("%w: negative column count %d", ErrInvalidArgument, p.Columns)
	}
	v, err := c.newViewItem(ctx, KindPlot, KindPlot.createCommand(), p.Name, p.settings(), p.placement())
	return Plot{v}, err
}

func (c *Client) AttachPlot(name string) (Plot, error) {
	v, err := c.AttachViewItem(KindPlot, name)
	return Plot{v}, err
}

// Add draws a curve or an image in the plot.
func (pl Plot) Add(ctx context.Context, r Ref) error {
	h, err := handleOf(r)
	if err != nil {
		return err
	}
	return pl.do(ctx, "addRelation", h)
}

func (pl Plot) SetXRange(ctx context.Context, x0, x1 float64) error {
	return pl.do(ctx, "setXRange", x0, x1)
}

func (pl Plot) SetYRange(ctx context.Context, y0, y1 float64) error {
	return pl.do(ctx, "setYRange", y0, y1)
}

func (pl Plot) SetXAuto(ctx context.Context) error {
	return pl.do(ctx, "setXAuto")
}

func (pl Plot) SetYAuto(ctx context.Context) error {
	return pl.do(ctx, "setPlotYAuto")
}

func (pl Plot) SetXAutoBorder(ctx context.Context) error {
	return pl.do(ctx, "setPlotXAutoBorder")
}

func (pl Plot) SetYAutoBorder(ctx context.Context) error {
	return pl.do(ctx, "setYAutoBorder")
}

func (pl Plot) SetXNoSpike(ctx context.Context) error {
	return pl.do(ctx, "setXNoSpike")
}

func (pl Plot) SetYNoSpike(ctx context.Context) error {
	return pl.do(ctx, "setYNoSpike")
}

// SetXAC fixes the x range to width r around the mean.
func (pl Plot) SetXAC(ctx context.Context, r float64) error {
	return pl.do(ctx, "setXAC", r)
}

func (pl Plot) SetYAC(ctx context.Context, r float64) error {
	return pl.do(ctx, "setYAC", r)
}

func globalFontCommand(family string, size float64, bold, italic bool) protocol.Command {
	return protocol.NewCommand("setGlobalFont", family, size, bold, italic)
}

// SetGlobalFont sets the font axis labels use by default. An empty family
// or a zero size leaves that part unchanged.
func (pl Plot) SetGlobalFont(ctx context.Context, family string, size float64, bold, italic bool) error {
	return pl.edit(ctx, globalFontCommand(family, size, bold, italic))
}

func (pl Plot) SetTopLabel(ctx context.Context, label string) error {
	return pl.do(ctx, "setTopLabel", label)
}

func (pl Plot) SetBottomLabel(ctx context.Context, label string) error {
	return pl.do(ctx, "setBottomLabel", label)
}

func (pl Plot) SetLeftLabel(ctx context.Context, label string) error {
	return pl.do(ctx, "setLeftLabel", label)
}

func (pl Plot) SetRightLabel(ctx context.Context, label string) error {
	return pl.do(ctx, "setRightLabel", label)
}

func (pl Plot) SetTopLabelAuto(ctx context.Context) error {
	return pl.do(ctx, "setTopLabelAuto")
}

func (pl Plot) SetBottomLabelAuto(ctx context.Context) error {
	return pl.do(ctx, "setBottomLabelAuto")
}

func (pl Plot) SetLeftLabelAuto(ctx context.Context) error {
	return pl.do(ctx, "setLeftLabelAuto")
}

func (pl Plot) SetRightLabelAuto(ctx context.Context) error {
	return pl.do(ctx, "setRightLabelAuto")
}

// NormalizeXToY matches the x scale to the y scale.
func (pl Plot) NormalizeXToY(ctx context.Context) error {
	return pl.do(ctx, "normalizeXtoY")
}

func (pl Plot) SetLogX(ctx context.Context, on bool) error {
	return pl.do(ctx, "setLogX", on)
}

func (pl Plot) SetLogY(ctx context.Context, on bool) error {
	return pl.do(ctx, "setLogY", on)
}

func (pl Plot) SetXAxisReversed(ctx context.Context, reversed bool) error {
	return pl.toggle(ctx, reversed, "setXAxisReversed", "setXAxisNotReversed")
}

func (pl Plot) SetYAxisReversed(ctx context.Context, reversed bool) error {
	return pl.toggle(ctx, reversed, "setYAxisReversed", "setYAxisNotReversed")
}
