package kst

import "context"

// String is a text object. Its value is read back verbatim.
type String struct{ Object }

func (s String) Value(ctx context.Context) (string, error) {
	return s.query(ctx, "value")
}

type GeneratedString struct{ String }

func (s GeneratedString) SetValue(ctx context.Context, value string) error {
	return s.do(ctx, "setValue", value)
}

// DataSourceString reads a string field from a data file.
type DataSourceString struct{ String }

func (s DataSourceString) Change(ctx context.Context, file, field string) error {
	return s.do(ctx, "change", file, field)
}

func (c *Client) NewGeneratedString(ctx context.Context, value, name string) (GeneratedString, error) {
	o, err := c.create(ctx, KindGeneratedString, KindGeneratedString.createCommand(), protocolCmd("setValue", value))
	if err != nil {
		return GeneratedString{}, err
	}
	o, err = c.finish(ctx, o, name)
	return GeneratedString{String{o}}, err
}

func (c *Client) NewDataSourceString(ctx context.Context, file, field, name string) (DataSourceString, error) {
	o, err := c.create(ctx, KindDataSourceString, KindDataSourceString.createCommand(), protocolCmd("change", file, field))
	if err != nil {
		return DataSourceString{}, err
	}
	o, err = c.finish(ctx, o, name)
	return DataSourceString{String{o}}, err
}

func (c *Client) AttachString(name string) (String, error) {
	o, err := c.Attach(KindString, name)
	return String{o}, err
}

// Scalar is a single number on the server.
type Scalar struct{ Object }

func (s Scalar) Value(ctx context.Context) (float64, error) {
	return s.queryFloat(ctx, "value")
}

type GeneratedScalar struct{ Scalar }

func (s GeneratedScalar) SetValue(ctx context.Context, value float64) error {
	return s.do(ctx, "setValue", value)
}

// DataSourceScalar reads a scalar field from a data file.
type DataSourceScalar struct{ Scalar }

func (s DataSourceScalar) Change(ctx context.Context, file, field string) error {
	return s.do(ctx, "change", file, field)
}

func (s DataSourceScalar) File(ctx context.Context) (string, error) {
	return s.query(ctx, "file")
}

func (s DataSourceScalar) Field(ctx context.Context) (string, error) {
	return s.query(ctx, "field")
}

// VectorScalar holds one frame of a vector field in a data file. A
// negative frame counts from the end.
type VectorScalar struct{ Scalar }

func (s VectorScalar) Change(ctx context.Context, file, field string, frame int) error {
	return s.do(ctx, "change", file, field, frame)
}

func (s VectorScalar) File(ctx context.Context) (string, error) {
	return s.query(ctx, "file")
}

func (s VectorScalar) Field(ctx context.Context) (string, error) {
	return s.query(ctx, "field")
}

func (s VectorScalar) Frame(ctx context.Context) (int, error) {
	return s.queryInt(ctx, "frame")
}

func (c *Client) NewGeneratedScalar(ctx context.Context, value float64, name string) (GeneratedScalar, error) {
	o, err := c.create(ctx, KindGeneratedScalar, KindGeneratedScalar.createCommand(), protocolCmd("setValue", value))
	if err != nil {
		return GeneratedScalar{}, err
	}
	o, err = c.finish(ctx, o, name)
	return GeneratedScalar{Scalar{o}}, err
}

func (c *Client) NewDataSourceScalar(ctx context.Context, file, field, name string) (DataSourceScalar, error) {
	o, err := c.create(ctx, KindDataSourceScalar, KindDataSourceScalar.createCommand(), protocolCmd("change", file, field))
	if err != nil {
		return DataSourceScalar{}, err
	}
	o, err = c.finish(ctx, o, name)
	return DataSourceScalar{Scalar{o}}, err
}

func (c *Client) NewVectorScalar(ctx context.Context, file, field string, frame int, name string) (VectorScalar, error) {
	o, err := c.create(ctx, KindVectorScalar, KindVectorScalar.createCommand(), protocolCmd("change", file, field, frame))
	if err != nil {
		return VectorScalar{}, err
	}
	o, err = c.finish(ctx, o, name)
	return VectorScalar{Scalar{o}}, err
}

func (c *Client) AttachScalar(name string) (Scalar, error) {
	o, err := c.Attach(KindScalar, name)
	return Scalar{o}, err
}
