package kst

import (
	"context"
	"fmt"

	"github.com/g960059/kstclient/exchange"
	"github.com/g960059/kstclient/protocol"
)

type Matrix struct{ Object }

func (m Matrix) Value(ctx context.Context, x, y int) (float64, error) {
	return m.queryFloat(ctx, "value", x, y)
}

func (m Matrix) Length(ctx context.Context) (int, error) {
	return m.queryInt(ctx, "length")
}

func (m Matrix) Min(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "min")
}

func (m Matrix) Max(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "max")
}

func (m Matrix) Mean(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "mean")
}

func (m Matrix) Width(ctx context.Context) (int, error) {
	return m.queryInt(ctx, "width")
}

func (m Matrix) Height(ctx context.Context) (int, error) {
	return m.queryInt(ctx, "height")
}

func (m Matrix) DX(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "dX")
}

func (m Matrix) DY(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "dY")
}

func (m Matrix) MinX(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "minX")
}

func (m Matrix) MinY(ctx context.Context) (float64, error) {
	return m.queryFloat(ctx, "minY")
}

// Values fetches the whole matrix. The store reply carries its
// dimensions; rows follow the x axis.
func (m Matrix) Values(ctx context.Context) (exchange.Matrix, error) {
	var out exchange.Matrix
	err := exchange.With(m.c.cfg.ExchangeDir, func(path string) error {
		reply, err := m.query(ctx, "store", path)
		if err != nil {
			return err
		}
		nx, ny, err := protocol.ParseDims(reply)
		if err != nil {
			return err
		}
		vals, err := exchange.ReadFloats(path)
		if err != nil {
			return err
		}
		out, err = exchange.NewMatrix(nx, ny, vals)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		return nil
	})
	return out, err
}

type DataMatrixParams struct {
	File   string
	Field  string
	StartX int
	StartY int
	// NumX and NumY of -1 read to the end.
	NumX  int
	NumY  int
	MinX  float64
	MinY  float64
	StepX float64
	StepY float64
	Name  string
}

func (p DataMatrixParams) command() protocol.Command {
	stepX, stepY := p.StepX, p.StepY
	if stepX == 0 {
		stepX = 1
	}
	if stepY == 0 {
		stepY = 1
	}
	return protocol.NewCommand("change", p.File, p.Field, p.StartX, p.StartY, p.NumX, p.NumY, p.MinX, p.MinY, stepX, stepY)
}

// DataMatrix reads a matrix field from a data file.
type DataMatrix struct{ Matrix }

func (m DataMatrix) Change(ctx context.Context, p DataMatrixParams) error {
	return m.edit(ctx, p.command())
}

func (m DataMatrix) Field(ctx context.Context) (string, error) {
	return m.query(ctx, "field")
}

func (m DataMatrix) Filename(ctx context.Context) (string, error) {
	return m.query(ctx, "filename")
}

func (m DataMatrix) StartX(ctx context.Context) (int, error) {
	return m.queryInt(ctx, "startX")
}

func (m DataMatrix) StartY(ctx context.Context) (int, error) {
	return m.queryInt(ctx, "startY")
}

func (c *Client) NewDataMatrix(ctx context.Context, p DataMatrixParams) (DataMatrix, error) {
	if p.File == "" || p.Field == "" {
		return DataMatrix{}, fmt.Errorf("%w: data matrix needs a file and a field", ErrInvalidArgument)
	}
	o, err := c.create(ctx, KindDataMatrix, KindDataMatrix.createCommand(), p.command())
	if err != nil {
		return DataMatrix{}, err
	}
	o, err = c.finish(ctx, o, p.Name)
	return DataMatrix{Matrix{o}}, err
}

// EditableMatrix holds values supplied by the client.
type EditableMatrix struct{ Matrix }

func (m EditableMatrix) Load(ctx context.Context, values exchange.Matrix) error {
	return exchange.With(m.c.cfg.ExchangeDir, func(path string) error {
		if err := exchange.WriteFloats(path, values.Data); err != nil {
			return err
		}
		return m.do(ctx, "load", path, values.Rows, values.Cols)
	})
}

// NewEditableMatrix creates a matrix holding values. A zero Matrix
// creates an empty one.
func (c *Client) NewEditableMatrix(ctx context.Context, values exchange.Matrix, name string) (EditableMatrix, error) {
	if len(values.Data) != values.Rows*values.Cols {
		return EditableMatrix{}, fmt.Errorf("%w: matrix %dx%d has %d values", ErrInvalidArgument, values.Rows, values.Cols, len(values.Data))
	}
	var o Object
	err := exchange.With(c.cfg.ExchangeDir, func(path string) error {
		var init []protocol.Command
		if len(values.Data) > 0 {
			if err := exchange.WriteFloats(path, values.Data); err != nil {
				return err
			}
			init = append(init, protocol.NewCommand("load", path, values.Rows, values.Cols))
		}
		var err error
		o, err = c.create(ctx, KindEditableMatrix, KindEditableMatrix.createCommand(), init...)
		return err
	})
	if err != nil {
		return EditableMatrix{}, err
	}
	o, err = c.finish(ctx, o, name)
	return EditableMatrix{Matrix{o}}, err
}

func (c *Client) AttachMatrix(name string) (Matrix, error) {
	o, err := c.Attach(KindMatrix, name)
	return Matrix{o}, err
}
