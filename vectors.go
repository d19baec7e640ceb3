package kst

import (
	"context"
	"fmt"

	"github.com/g960059/kstclient/exchange"
	"github.com/g960059/kstclient/protocol"
)

type Vector struct{ Object }

func (v Vector) Value(ctx context.Context, index int) (float64, error) {
	return v.queryFloat(ctx, "value", index)
}

func (v Vector) Length(ctx context.Context) (int, error) {
	return v.queryInt(ctx, "length")
}

func (v Vector) Min(ctx context.Context) (float64, error) {
	return v.queryFloat(ctx, "min")
}

func (v Vector) Max(ctx context.Context) (float64, error) {
	return v.queryFloat(ctx, "max")
}

func (v Vector) Mean(ctx context.Context) (float64, error) {
	return v.queryFloat(ctx, "mean")
}

// Values fetches the whole vector through an exchange file.
func (v Vector) Values(ctx context.Context) ([]float64, error) {
	var out []float64
	err := exchange.With(v.c.cfg.ExchangeDir, func(path string) error {
		if err := v.do(ctx, "store", path); err != nil {
			return err
		}
		vals, err := exchange.ReadFloats(path)
		if err != nil {
			return err
		}
		out = vals
		return nil
	})
	return out, err
}

type DataVectorParams struct {
	File  string
	Field string
	// Start is the first frame; -1 counts back from the end.
	Start int
	// NumFrames of -1 reads to the end of the file.
	NumFrames int
	// Skip reads every Skip'th frame when positive.
	Skip        int
	BoxcarFirst bool
	Name        string
}

// DataVector reads a field from a data file.
type DataVector struct{ Vector }

func (v DataVector) Change(ctx context.Context, p DataVectorParams) error {
	return v.do(ctx, "change", p.File, p.Field, p.Start, p.NumFrames, p.Skip, p.BoxcarFirst)
}

func (v DataVector) Field(ctx context.Context) (string, error) {
	return v.query(ctx, "field")
}

func (v DataVector) Filename(ctx context.Context) (string, error) {
	return v.query(ctx, "filename")
}

func (v DataVector) Start(ctx context.Context) (int, error) {
	return v.queryInt(ctx, "start")
}

func (v DataVector) NumFrames(ctx context.Context) (int, error) {
	return v.queryInt(ctx, "NFrames")
}

func (v DataVector) Skip(ctx context.Context) (int, error) {
	return v.queryInt(ctx, "skip")
}

func (v DataVector) BoxcarFirst(ctx context.Context) (bool, error) {
	return v.queryBool(ctx, "boxcarFirst")
}

func (c *Client) NewDataVector(ctx context.Context, p DataVectorParams) (DataVector, error) {
	if p.File == "" || p.Field == "" {
		return DataVector{}, fmt.Errorf("%w: data vector needs a file and a field", ErrInvalidArgument)
	}
	o, err := c.create(ctx, KindDataVector, KindDataVector.createCommand(),
		protocol.NewCommand("change", p.File, p.Field, p.Start, p.NumFrames, p.Skip, p.BoxcarFirst))
	if err != nil {
		return DataVector{}, err
	}
	o, err = c.finish(ctx, o, p.Name)
	return DataVector{Vector{o}}, err
}

type GeneratedVectorParams struct {
	From  float64
	To    float64
	Count int
	Name  string
}

// GeneratedVector holds Count evenly spaced values from From to To.
type GeneratedVector struct{ Vector }

func (v GeneratedVector) Change(ctx context.Context, from, to float64, count int) error {
	if count < 2 {
		return fmt.Errorf("%w: generated vector needs at least 2 points, got %d", ErrInvalidArgument, count)
	}
	return v.do(ctx, "change", from, to, count)
}

func (c *Client) NewGeneratedVector(ctx context.Context, p GeneratedVectorParams) (GeneratedVector, error) {
	if p.Count < 2 {
		return GeneratedVector{}, fmt.Errorf("%w: generated vector needs at least 2 points, got %d", ErrInvalidArgument, p.Count)
	}
	o, err := c.create(ctx, KindGeneratedVector, KindGeneratedVector.createCommand(),
		protocol.NewCommand("change", p.From, p.To, p.Count))
	if err != nil {
		return GeneratedVector{}, err
	}
	o, err = c.finish(ctx, o, p.Name)
	return GeneratedVector{Vector{o}}, err
}

// EditableVector holds values supplied by the client.
type EditableVector struct{ Vector }

func (v EditableVector) Load(ctx context.Context, values []float64) error {
	return exchange.With(v.c.cfg.ExchangeDir, func(path string) error {
		if err := exchange.WriteFloats(path, values); err != nil {
			return err
		}
		return v.do(ctx, "load", path)
	})
}

// NewEditableVector creates a vector holding values. A nil slice creates
// an empty vector.
func (c *Client) NewEditableVector(ctx context.Context, values []float64, name string) (EditableVector, error) {
	var o Object
	err := exchange.With(c.cfg.ExchangeDir, func(path string) error {
		var init []protocol.Command
		if values != nil {
			if err := exchange.WriteFloats(path, values); err != nil {
				return err
			}
			init = append(init, protocol.NewCommand("load", path))
		}
		var err error
		o, err = c.create(ctx, KindEditableVector, KindEditableVector.createCommand(), init...)
		return err
	})
	if err != nil {
		return EditableVector{}, err
	}
	o, err = c.finish(ctx, o, name)
	return EditableVector{Vector{o}}, err
}

func (c *Client) AttachVector(name string) (Vector, error) {
	o, err := c.Attach(KindVector, name)
	return Vector{o}, err
}
