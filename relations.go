package kst

import (
	"context"

	"github.com/g960059/kstclient/protocol"
)

// Relation is anything a plot can draw.
type Relation struct{ Object }

func (r Relation) MaxX(ctx context.Context) (float64, error) {
	return r.queryFloat(ctx, "maxX")
}

func (r Relation) MinX(ctx context.Context) (float64, error) {
	return r.queryFloat(ctx, "minX")
}

func (r Relation) MaxY(ctx context.Context) (float64, error) {
	return r.queryFloat(ctx, "maxY")
}

func (r Relation) MinY(ctx context.Context) (float64, error) {
	return r.queryFloat(ctx, "minY")
}

func (r Relation) ShowEditDialog(ctx context.Context) error {
	return r.do(ctx, "showEditDialog")
}

type Curve struct{ Relation }

type CurveParams struct {
	X Ref
	Y Ref
	// Error bars are optional. A nil minus error reuses the plus one.
	XError      Ref
	YError      Ref
	XMinusError Ref
	YMinusError Ref
	Name        string
}

// errorCommands builds the setter pair for one axis of error bars.
func errorCommands(axis string, plus, minus Ref) ([]protocol.Command, error) {
	if plus == nil {
		return nil, nil
	}
	ph, err := handleOf(plus)
	if err != nil {
		return nil, err
	}
	mh := ph
	if minus != nil {
		if mh, err = handleOf(minus); err != nil {
			return nil, err
		}
	}
	return []protocol.Command{
		protocol.NewCommand("set"+axis+"Error", ph),
		protocol.NewCommand("set"+axis+"MinusError", mh),
	}, nil
}

func (c *Client) NewCurve(ctx context.Context, p CurveParams) (Curve, error) {
	xh, err := handleOf(p.X)
	if err != nil {
		return Curve{}, err
	}
	yh, err := handleOf(p.Y)
	if err != nil {
		return Curve{}, err
	}
	init := []protocol.Command{
		protocol.NewCommand("setXVector", xh),
		protocol.NewCommand("setYVector", yh),
	}
	for _, e := range []struct {
		axis        string
		plus, minus Ref
	}{{"X", p.XError, p.XMinusError}, {"Y", p.YError, p.YMinusError}} {
		cmds, err := errorCommands(e.axis, e.plus, e.minus)
		if err != nil {
			return Curve{}, err
		}
		init = append(init, cmds...)
	}
	o, err := c.create(ctx, KindCurve, KindCurve.createCommand(), init...)
	if err != nil {
		return Curve{}, err
	}
	o, err = c.finish(ctx, o, p.Name)
	return Curve{Relation{o}}, err
}

func (c *Client) AttachCurve(name string) (Curve, error) {
	o, err := c.Attach(KindCurve, name)
	return Curve{Relation{o}}, err
}

func (cv Curve) SetXVector(ctx context.Context, v Ref) error {
	h, err := handleOf(v)
	if err != nil {
		return err
	}
	return cv.do(ctx, "setXVector", h)
}

func (cv Curve) SetYVector(ctx context.Context, v Ref) error {
	h, err := handleOf(v)
	if err != nil {
		return err
	}
	return cv.do(ctx, "setYVector", h)
}

// SetXError sets the x error bars in one transaction. A nil minus uses
// plus for both directions.
func (cv Curve) SetXError(ctx context.Context, plus, minus Ref) error {
	if plus == nil {
		return errNilRef
	}
	cmds, err := errorCommands("X", plus, minus)
	if err != nil {
		return err
	}
	return cv.edit(ctx, cmds...)
}

func (cv Curve) SetYError(ctx context.Context, plus, minus Ref) error {
	if plus == nil {
		return errNilRef
	}
	cmds, err := errorCommands("Y", plus, minus)
	if err != nil {
		return err
	}
	return cv.edit(ctx, cmds...)
}

func (cv Curve) SetColor(ctx context.Context, color string) error {
	return cv.do(ctx, "setColor", color)
}

func (cv Curve) SetHeadColor(ctx context.Context, color string) error {
	return cv.do(ctx, "setHeadColor", color)
}

func (cv Curve) SetBarFillColor(ctx context.Context, color string) error {
	return cv.do(ctx, "setBarFillColor", color)
}

func (cv Curve) SetHasPoints(ctx context.Context, b bool) error {
	return cv.do(ctx, "setHasPoints", b)
}

func (cv Curve) SetHasLines(ctx context.Context, b bool) error {
	return cv.do(ctx, "setHasLines", b)
}

func (cv Curve) SetHasBars(ctx context.Context, b bool) error {
	return cv.do(ctx, "setHasBars", b)
}

func (cv Curve) SetHasHead(ctx context.Context, b bool) error {
	return cv.do(ctx, "setHasHead", b)
}

func (cv Curve) SetLineWidth(ctx context.Context, w int) error {
	return cv.do(ctx, "setLineWidth", w)
}

func (cv Curve) SetPointSize(ctx context.Context, size int) error {
	return cv.do(ctx, "setPointSize", size)
}

// SetPointDensity takes 0 for all points up to 4 for the fewest.
func (cv Curve) SetPointDensity(ctx context.Context, density int) error {
	return cv.do(ctx, "setPointDensity", density)
}

func (cv Curve) SetPointType(ctx context.Context, pointType int) error {
	return cv.do(ctx, "setPointType", pointType)
}

func (cv Curve) SetHeadType(ctx context.Context, headType int) error {
	return cv.do(ctx, "setHeadType", headType)
}

func (cv Curve) SetLineStyle(ctx context.Context, style int) error {
	return cv.do(ctx, "setLineStyle", style)
}

func (cv Curve) Color(ctx context.Context) (string, error) {
	return cv.query(ctx, "color")
}

func (cv Curve) HeadColor(ctx context.Context) (string, error) {
	return cv.query(ctx, "headColor")
}

func (cv Curve) BarFillColor(ctx context.Context) (string, error) {
	return cv.query(ctx, "barFillColor")
}

func (cv Curve) HasPoints(ctx context.Context) (bool, error) {
	return cv.queryBool(ctx, "hasPoints")
}

func (cv Curve) HasLines(ctx context.Context) (bool, error) {
	return cv.queryBool(ctx, "hasLines")
}

func (cv Curve) HasBars(ctx context.Context) (bool, error) {
	return cv.queryBool(ctx, "hasBars")
}

func (cv Curve) HasHead(ctx context.Context) (bool, error) {
	return cv.queryBool(ctx, "hasHead")
}

func (cv Curve) LineWidth(ctx context.Context) (int, error) {
	return cv.queryInt(ctx, "lineWidth")
}

func (cv Curve) PointSize(ctx context.Context) (int, error) {
	return cv.queryInt(ctx, "pointSize")
}

func (cv Curve) PointType(ctx context.Context) (int, error) {
	return cv.queryInt(ctx, "pointType")
}

func (cv Curve) HeadType(ctx context.Context) (int, error) {
	return cv.queryInt(ctx, "headType")
}

func (cv Curve) LineStyle(ctx context.Context) (int, error) {
	return cv.queryInt(ctx, "lineStyle")
}

func (cv Curve) PointDensity(ctx context.Context) (int, error) {
	return cv.queryInt(ctx, "pointDensity")
}

func (cv Curve) vector(ctx context.Context, verb string) (Vector, error) {
	o, err := cv.queryObject(ctx, KindVector, verb)
	return Vector{o}, err
}

func (cv Curve) XVector(ctx context.Context) (Vector, error) {
	return cv.vector(ctx, "xVector")
}

func (cv Curve) YVector(ctx context.Context) (Vector, error) {
	return cv.vector(ctx, "yVector")
}

func (cv Curve) XErrorVector(ctx context.Context) (Vector, error) {
	return cv.vector(ctx, "xErrorVector")
}

func (cv Curve) YErrorVector(ctx context.Context) (Vector, error) {
	return cv.vector(ctx, "yErrorVector")
}

func (cv Curve) XMinusErrorVector(ctx context.Context) (Vector, error) {
	return cv.vector(ctx, "xMinusErrorVector")
}

func (cv Curve) YMinusErrorVector(ctx context.Context) (Vector, error) {
	return cv.vector(ctx, "yMinusErrorVector")
}

// Image draws a matrix as a color map.
type Image struct{ Relation }

func (c *Client) NewImage(ctx context.Context, m Ref, name string) (Image, error) {
	h, err := handleOf(m)
	if err != nil {
		return Image{}, err
	}
	o, err := c.create(ctx, KindImage, KindImage.createCommand(), protocol.NewCommand("setMatrix", h))
	if err != nil {
		return Image{}, err
	}
	o, err = c.finish(ctx, o, name)
	return Image{Relation{o}}, err
}

func (c *Client) AttachImage(name string) (Image, error) {
	o, err := c.Attach(KindImage, name)
	return Image{Relation{o}}, err
}

func (im Image) SetMatrix(ctx context.Context, m Ref) error {
	h, err := handleOf(m)
	if err != nil {
		return err
	}
	return im.do(ctx, "setMatrix", h)
}

// SetPalette selects a palette by index: 0 Grey, 1 Red, 2 Spectrum,
// 3 EOS-A, 4 EOS-B, 5 8 colors, 6 Cyclical Spectrum.
func (im Image) SetPalette(ctx context.Context, palette int) error {
	return im.do(ctx, "setPalette", palette)
}

func (im Image) SetFixedColorRange(ctx context.Context, zmin, zmax float64) error {
	return im.do(ctx, "setFixedColorRange", zmin, zmax)
}

// SetAutoColorRange saturates the given fraction of points, split evenly
// between both ends of the color map.
func (im Image) SetAutoColorRange(ctx context.Context, saturated float64) error {
	return im.do(ctx, "setAutoColorRange", saturated)
}

func (im Image) MaxZ(ctx context.Context) (float64, error) {
	return im.queryFloat(ctx, "maxZ")
}

func (im Image) MinZ(ctx context.Context) (float64, error) {
	return im.queryFloat(ctx, "minZ")
}
