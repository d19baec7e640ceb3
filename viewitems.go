package kst

import (
	"context"
	"strings"

	"github.com/g960059/kstclient/protocol"
)

// Point is a position or extent in view coordinates, where the window
// spans 0 to 1 on both axes.
type Point struct {
	X, Y float64
}

// Stroke describes an item's outline. Zero fields leave the server's
// setting unchanged.
type Stroke struct {
	Style      int
	Width      float64
	BrushColor string
	BrushStyle int
	JoinStyle  int
	CapStyle   int
}

func (s Stroke) commands() []protocol.Command {
	var cmds []protocol.Command
	if s.BrushColor != "" {
		cmds = append(cmds, protocol.NewCommand("setStrokeBrushColor", s.BrushColor))
	}
	if s.Style != 0 {
		cmds = append(cmds, protocol.NewCommand("setIndexOfStrokeStyle", s.Style))
	}
	if s.Width != 0 {
		cmds = append(cmds, protocol.NewCommand("setStrokeWidth", s.Width))
	}
	if s.BrushStyle != 0 {
		cmds = append(cmds, protocol.NewCommand("setIndexOfStrokeBrushStyle", s.BrushStyle))
	}
	if s.JoinStyle != 0 {
		cmds = append(cmds, protocol.NewCommand("setIndexOfStrokeJoinStyle", s.JoinStyle))
	}
	if s.CapStyle != 0 {
		cmds = append(cmds, protocol.NewCommand("setIndexOfStrokeCapStyle", s.CapStyle))
	}
	return cmds
}

// Fill describes an item's interior. Zero fields leave the server's
// setting unchanged.
type Fill struct {
	Color string
	Style int
}

func (f Fill) commands() []protocol.Command {
	var cmds []protocol.Command
	if f.Color != "" {
		cmds = append(cmds, protocol.NewCommand("setFillColor", f.Color))
	}
	if f.Style != 0 {
		cmds = append(cmds, protocol.NewCommand("setIndexOfFillStyle", f.Style))
	}
	return cmds
}

func posCommands(p Point) []protocol.Command {
	return []protocol.Command{
		protocol.NewCommand("setPosX", p.X),
		protocol.NewCommand("setPosY", p.Y),
	}
}

func sizeCommands(s Point) []protocol.Command {
	return []protocol.Command{
		protocol.NewCommand("setGeoX", s.X),
		protocol.NewCommand("setGeoY", s.Y),
	}
}

func fixAspectCommand(fixed bool) protocol.Command {
	if fixed {
		return protocol.NewCommand("checkFixAspectRatio")
	}
	return protocol.NewCommand("uncheckFixAspectRatio")
}

// ViewItem is anything placed on a tab: annotations, pictures, plots.
type ViewItem struct{ Object }

func (v ViewItem) SetHMargin(ctx context.Context, margin float64) error {
	return v.do(ctx, "setLayoutHorizontalMargin", margin)
}

func (v ViewItem) SetVMargin(ctx context.Context, margin float64) error {
	return v.do(ctx, "setLayoutVerticalMargin", margin)
}

func (v ViewItem) SetHSpace(ctx context.Context, space float64) error {
	return v.do(ctx, "setLayoutHorizontalSpacing", space)
}

func (v ViewItem) SetVSpace(ctx context.Context, space float64) error {
	return v.do(ctx, "setLayoutVerticalSpacing", space)
}

func (v ViewItem) SetFillColor(ctx context.Context, color string) error {
	return v.do(ctx, "setFillColor", color)
}

// SetFillStyle takes a brush style index: 0 none, 1 solid, 2 to 8
// dense patterns, 9 to 14 line patterns.
func (v ViewItem) SetFillStyle(ctx context.Context, style int) error {
	return v.do(ctx, "setIndexOfFillStyle", style)
}

// SetStrokeStyle takes 0 none, 1 solid, 2 dash, 3 dot, 4 dash dot,
// 5 dash dot dot.
func (v ViewItem) SetStrokeStyle(ctx context.Context, style int) error {
	return v.do(ctx, "setIndexOfStrokeStyle", style)
}

func (v ViewItem) SetStrokeWidth(ctx context.Context, width float64) error {
	return v.do(ctx, "setStrokeWidth", width)
}

func (v ViewItem) SetStrokeBrushColor(ctx context.Context, color string) error {
	return v.do(ctx, "setStrokeBrushColor", color)
}

func (v ViewItem) SetStrokeBrushStyle(ctx context.Context, style int) error {
	return v.do(ctx, "setIndexOfStrokeBrushStyle", style)
}

// SetStrokeJoinStyle takes 0 miter, 1 bevel, 2 round.
func (v ViewItem) SetStrokeJoinStyle(ctx context.Context, style int) error {
	return v.do(ctx, "setIndexOfStrokeJoinStyle", style)
}

// SetStrokeCapStyle takes 0 flat, 1 square, 2 round.
func (v ViewItem) SetStrokeCapStyle(ctx context.Context, style int) error {
	return v.do(ctx, "setIndexOfStrokeCapStyle", style)
}

func (v ViewItem) SetFixedAspectRatio(ctx context.Context, fixed bool) error {
	return v.edit(ctx, fixAspectCommand(fixed))
}

// SetPos moves the item's center. (0,0) is the top left of the tab.
func (v ViewItem) SetPos(ctx context.Context, pos Point) error {
	return v.edit(ctx, posCommands(pos)...)
}

// SetSize resizes the item. The height is ignored while the aspect ratio
// is fixed.
func (v ViewItem) SetSize(ctx context.Context, size Point) error {
	return v.edit(ctx, sizeCommands(size)...)
}

func (v ViewItem) SetRotation(ctx context.Context, degrees float64) error {
	return v.do(ctx, "setRotation", degrees)
}

// Remove deletes the item from the server. The proxy must not be used
// afterwards.
func (v ViewItem) Remove(ctx context.Context) error {
	if _, err := v.c.send(ctx, "eliminate", v.handle); err != nil {
		return err
	}
	v.c.forget(ctx, v.Object)
	return nil
}

// newViewItem creates an item, then applies its settings in a second
// transaction once the server has placed it.
func (c *Client) newViewItem(ctx context.Context, kind Kind, create protocol.Command, name string, settings []protocol.Command, init ...protocol.Command) (ViewItem, error) {
	o, err := c.create(ctx, kind, create, init...)
	if err != nil {
		return ViewItem{}, err
	}
	if len(settings) > 0 {
		if err := o.edit(ctx, settings...); err != nil {
			return ViewItem{o}, err
		}
	}
	o, err = c.finish(ctx, o, name)
	return ViewItem{o}, err
}

func (c *Client) AttachViewItem(kind Kind, name string) (ViewItem, error) {
	o, err := c.Attach(kind, name)
	return ViewItem{o}, err
}

// Items lists the view items of one kind by name.
func (c *Client) Items(ctx context.Context, kind Kind) ([]ViewItem, error) {
	names, err := c.names(ctx, kind)
	if err != nil {
		return nil, err
	}
	items := make([]ViewItem, 0, len(names))
	for _, n := range names {
		it, err := c.AttachViewItem(kind, n)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

type Label struct{ ViewItem }

type LabelParams struct {
	Text     string
	Pos      Point
	Rotation float64
	// FontSize 0 keeps the server default.
	FontSize   float64
	FontColor  string
	FontFamily string
	Bold       bool
	Italic     bool
	Name       string
}

func (c *Client) NewLabel(ctx context.Context, p LabelParams) (Label, error) {
	settings := []protocol.Command{protocol.NewCommand("setLabel", p.Text)}
	if p.FontSize != 0 {
		settings = append(settings, protocol.NewCommand("setFontSize", p.FontSize))
	}
	settings = append(settings, posCommands(p.Pos)...)
	settings = append(settings,
		fixAspectCommand(true),
		protocol.NewCommand("setRotation", p.Rotation),
	)
	if p.FontColor != "" {
		settings = append(settings, protocol.NewCommand("setLabelColor", p.FontColor))
	}
	if p.FontFamily != "" {
		settings = append(settings, protocol.NewCommand("setFontFamily", p.FontFamily))
	}
	settings = append(settings, boldCommand(p.Bold), italicCommand(p.Italic))
	v, err := c.newViewItem(ctx, KindLabel, KindLabel.createCommand(), p.Name, settings)
	return Label{v}, err
}

func boldCommand(b bool) protocol.Command {
	if b {
		return protocol.NewCommand("checkLabelBold")
	}
	return protocol.NewCommand("uncheckLabelBold")
}

func italicCommand(b bool) protocol.Command {
	if b {
		return protocol.NewCommand("checkLabelItalic")
	}
	return protocol.NewCommand("uncheckLabelItalic")
}

// SetText sets the label text. Bracketed names such as [X1:Mean] are
// rendered live.
func (l Label) SetText(ctx context.Context, text string) error {
	return l.do(ctx, "setLabel", text)
}

func (l Label) SetFontSize(ctx context.Context, size float64) error {
	return l.do(ctx, "setFontSize", size)
}

func (l Label) SetFontBold(ctx context.Context, bold bool) error {
	return l.edit(ctx, boldCommand(bold))
}

func (l Label) SetFontItalic(ctx context.Context, italic bool) error {
	return l.edit(ctx, italicCommand(italic))
}

func (l Label) SetFontColor(ctx context.Context, color string) error {
	return l.do(ctx, "setLabelColor", color)
}

func (l Label) SetFontFamily(ctx context.Context, family string) error {
	return l.do(ctx, "setFontFamily", family)
}

type Legend struct{ ViewItem }

// NewLegend adds a legend to plot. The server addresses the plot by its
// name.
func (c *Client) NewLegend(ctx context.Context, plot Plot, name string) (Legend, error) {
	plotName, err := plot.Name(ctx)
	if err != nil {
		return Legend{}, err
	}
	v, err := c.newViewItem(ctx, KindLegend, KindLegend.createCommand(plotName), name, nil)
	return Legend{v}, err
}

func (l Legend) SetFontSize(ctx context.Context, size float64) error {
	return l.do(ctx, "setFontSize", size)
}

func (l Legend) SetFontBold(ctx context.Context, bold bool) error {
	return l.edit(ctx, boldCommand(bold))
}

func (l Legend) SetFontItalic(ctx context.Context, italic bool) error {
	return l.edit(ctx, italicCommand(italic))
}

func (l Legend) SetFontColor(ctx context.Context, color string) error {
	return l.do(ctx, "setLegendColor", color)
}

func (l Legend) SetFontFamily(ctx context.Context, family string) error {
	return l.do(ctx, "setFontFamily", family)
}

// ShapeParams places a box or an ellipse.
type ShapeParams struct {
	Pos       Point
	Size      Point
	Rotation  float64
	FixAspect bool
	Fill      Fill
	Stroke    Stroke
	Name      string
}

func (p ShapeParams) settings() []protocol.Command {
	cmds := append(posCommands(p.Pos), sizeCommands(p.Size)...)
	cmds = append(cmds, fixAspectCommand(p.FixAspect), protocol.NewCommand("setRotation", p.Rotation))
	cmds = append(cmds, p.Fill.commands()...)
	return append(cmds, p.Stroke.commands()...)
}

type Box struct{ ViewItem }

func (c *Client) NewBox(ctx context.Context, p ShapeParams) (Box, error) {
	v, err := c.newViewItem(ctx, KindBox, KindBox.createCommand(), p.Name, p.settings())
	return Box{v}, err
}

type Ellipse struct{ ViewItem }

func (c *Client) NewEllipse(ctx context.Context, p ShapeParams) (Ellipse, error) {
	v, err := c.newViewItem(ctx, KindEllipse, KindEllipse.createCommand(), p.Name, p.settings())
	return Ellipse{v}, err
}

type CircleParams struct {
	Pos      Point
	Diameter float64
	Fill     Fill
	Stroke   Stroke
	Name     string
}

type Circle struct{ ViewItem }

func (c *Client) NewCircle(ctx context.Context, p CircleParams) (Circle, error) {
	settings := append(posCommands(p.Pos), protocol.NewCommand("setGeoX", p.Diameter))
	settings = append(settings, p.Fill.commands()...)
	settings = append(settings, p.Stroke.commands()...)
	v, err := c.newViewItem(ctx, KindCircle, KindCircle.createCommand(), p.Name, settings)
	return Circle{v}, err
}

func (ci Circle) SetDiameter(ctx context.Context, d float64) error {
	return ci.do(ctx, "setGeoX", d)
}

// LineParams places a line or an arrow. Pos is the line's center.
type LineParams struct {
	Pos      Point
	Length   float64
	Rotation float64
	Stroke   Stroke
	Name     string
}

func (p LineParams) settings() []protocol.Command {
	cmds := append(posCommands(p.Pos),
		protocol.NewCommand("setGeoX", p.Length),
		protocol.NewCommand("setRotation", p.Rotation),
	)
	return append(cmds, p.Stroke.commands()...)
}

type Line struct{ ViewItem }

func (c *Client) NewLine(ctx context.Context, p LineParams) (Line, error) {
	v, err := c.newViewItem(ctx, KindLine, KindLine.createCommand(), p.Name, p.settings())
	return Line{v}, err
}

func (l Line) SetLength(ctx context.Context, length float64) error {
	return l.do(ctx, "setGeoX", length)
}

type ArrowParams struct {
	LineParams
	AtStart bool
	AtEnd   bool
	// HeadScale 0 keeps the server default.
	HeadScale float64
}

type Arrow struct{ ViewItem }

func (c *Client) NewArrow(ctx context.Context, p ArrowParams) (Arrow, error) {
	settings := append(p.LineParams.settings(),
		protocol.NewCommand("arrowAtStart", p.AtStart),
		protocol.NewCommand("arrowAtEnd", p.AtEnd),
	)
	if p.HeadScale != 0 {
		settings = append(settings, protocol.NewCommand("arrowHeadScale", p.HeadScale))
	}
	v, err := c.newViewItem(ctx, KindArrow, KindArrow.createCommand(), p.Name, settings)
	return Arrow{v}, err
}

func (a Arrow) SetLength(ctx context.Context, length float64) error {
	return a.do(ctx, "setGeoX", length)
}

func (a Arrow) SetArrowAtStart(ctx context.Context, on bool) error {
	return a.do(ctx, "arrowAtStart", on)
}

func (a Arrow) SetArrowAtEnd(ctx context.Context, on bool) error {
	return a.do(ctx, "arrowAtEnd", on)
}

func (a Arrow) SetHeadScale(ctx context.Context, scale float64) error {
	return a.do(ctx, "arrowHeadScale", scale)
}

// ImageItemParams places a picture or an SVG read from File.
type ImageItemParams struct {
	File     string
	Pos      Point
	Width    float64
	Rotation float64
	Name     string
}

func (p ImageItemParams) settings() []protocol.Command {
	return append(posCommands(p.Pos),
		protocol.NewCommand("setGeoX", p.Width),
		fixAspectCommand(true),
		protocol.NewCommand("setRotation", p.Rotation),
	)
}

type Picture struct{ ViewItem }

func (c *Client) NewPicture(ctx context.Context, p ImageItemParams) (Picture, error) {
	v, err := c.newViewItem(ctx, KindPicture, KindPicture.createCommand(p.File), p.Name, p.settings())
	return Picture{v}, err
}

func (pc Picture) SetWidth(ctx context.Context, width float64) error {
	return pc.do(ctx, "setGeoX", width)
}

// SetPicture replaces the image. The aspect ratio is not updated.
func (pc Picture) SetPicture(ctx context.Context, file string) error {
	return pc.do(ctx, "setPicture", file)
}

type SVG struct{ ViewItem }

func (c *Client) NewSVG(ctx context.Context, p ImageItemParams) (SVG, error) {
	v, err := c.newViewItem(ctx, KindSVG, KindSVG.createCommand(p.File), p.Name, p.settings())
	return SVG{v}, err
}

func (s SVG) SetWidth(ctx context.Context, width float64) error {
	return s.do(ctx, "setGeoX", width)
}

// WidgetParams places a button or a line edit. Both are created in a
// single transaction.
type WidgetParams struct {
	Pos      Point
	Size     Point
	Text     string
	Rotation float64
	Name     string
}

func (p WidgetParams) init() []protocol.Command {
	cmds := append(posCommands(p.Pos), sizeCommands(p.Size)...)
	return append(cmds,
		protocol.NewCommand("setText", p.Text),
		protocol.NewCommand("setRotation", p.Rotation),
	)
}

type Button struct{ ViewItem }

func (c *Client) NewButton(ctx context.Context, p WidgetParams) (Button, error) {
	v, err := c.newViewItem(ctx, KindButton, KindButton.createCommand(), p.Name, nil, p.init()...)
	return Button{v}, err
}

func (b Button) SetText(ctx context.Context, text string) error {
	return b.do(ctx, "setText", text)
}

// Clicks delivers one value per press of the button until ctx is done.
func (b Button) Clicks(ctx context.Context) (<-chan struct{}, error) {
	raw, err := b.c.sess.Subscribe(ctx, b.handle)
	if err != nil {
		return nil, err
	}
	out := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range raw {
			// presses that arrive back to back share one read
			for range strings.Count(msg, clickedEvent) {
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type LineEdit struct{ ViewItem }

func (c *Client) NewLineEdit(ctx context.Context, p WidgetParams) (LineEdit, error) {
	v, err := c.newViewItem(ctx, KindLineEdit, KindLineEdit.createCommand(), p.Name, nil, p.init()...)
	return LineEdit{v}, err
}

func (l LineEdit) SetText(ctx context.Context, text string) error {
	return l.do(ctx, "setText", text)
}

// Changes delivers the text each time the user commits a new value, until
// ctx is done.
func (l LineEdit) Changes(ctx context.Context) (<-chan string, error) {
	raw, err := l.c.sess.Subscribe(ctx, l.handle)
	if err != nil {
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range raw {
			for _, v := range splitValueSet(msg) {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

const (
	clickedEvent  = "clicked"
	valueSetEvent = "valueSet:"
)

// splitValueSet returns the values carried by one read of a line edit's
// event stream, which may hold several valueSet:VAL messages.
func splitValueSet(msg string) []string {
	parts := strings.Split(msg, valueSetEvent)
	if len(parts) < 2 {
		return nil
	}
	return parts[1:]
}
