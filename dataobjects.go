package kst

import (
	"context"
	"fmt"

	"github.com/g960059/kstclient/protocol"
)

// dataObject is the shared base for objects that compute output vectors
// from inputs.
type dataObject struct{ Object }

func (d dataObject) outputVector(ctx context.Context, slot string) (Vector, error) {
	o, err := d.queryObject(ctx, KindVector, "outputVector", slot)
	return Vector{o}, err
}

func (d dataObject) outputScalar(ctx context.Context, slot string) (Scalar, error) {
	o, err := d.queryObject(ctx, KindScalar, "outputScalar", slot)
	return Scalar{o}, err
}

func (d dataObject) setInputVector(ctx context.Context, slot string, v Ref) error {
	h, err := handleOf(v)
	if err != nil {
		return err
	}
	return d.do(ctx, "setInputVector", slot, h)
}

func inputVector(slot string, v Ref) (protocol.Command, error) {
	h, err := handleOf(v)
	if err != nil {
		return protocol.Command{}, err
	}
	return protocol.NewCommand("setInputVector", slot, h), nil
}

// Equation evaluates an expression over the input vector X.
type Equation struct{ dataObject }

func (c *Client) NewEquation(ctx context.Context, x Ref, equation, name string) (Equation, error) {
	if equation == "" {
		return Equation{}, fmt.Errorf("%w: empty equation", ErrInvalidArgument)
	}
	in, err := inputVector("X", x)
	if err != nil {
		return Equation{}, err
	}
	o, err := c.create(ctx, KindEquation, KindEquation.createCommand(),
		protocol.NewCommand("setEquation", equation), in)
	if err != nil {
		return Equation{}, err
	}
	o, err = c.finish(ctx, o, name)
	return Equation{dataObject{o}}, err
}

func (e Equation) Y(ctx context.Context) (Vector, error) {
	return e.outputVector(ctx, "O")
}

func (e Equation) X(ctx context.Context) (Vector, error) {
	return e.outputVector(ctx, "XO")
}

func (e Equation) SetX(ctx context.Context, x Ref) error {
	return e.setInputVector(ctx, "X", x)
}

// HistogramNormalization selects how bin counts are scaled.
type HistogramNormalization int

const (
	NormalizeCount HistogramNormalization = iota
	NormalizePercent
	NormalizeFraction
	NormalizePeak
)

type HistogramParams struct {
	Vector        Ref
	BinMin        float64
	BinMax        float64
	NumBins       int
	Normalization HistogramNormalization
	AutoBin       bool
	Name          string
}

func (p HistogramParams) command() (protocol.Command, error) {
	h, err := handleOf(p.Vector)
	if err != nil {
		return protocol.Command{}, err
	}
	if p.NumBins < 1 {
		return protocol.Command{}, fmt.Errorf("%w: histogram needs at least one bin", ErrInvalidArgument)
	}
	return protocol.NewCommand("change", h, p.BinMin, p.BinMax, p.NumBins, int(p.Normalization), p.AutoBin), nil
}

type Histogram struct{ dataObject }

func (c *Client) NewHistogram(ctx context.Context, p HistogramParams) (Histogram, error) {
	cmd, err := p.command()
	if err != nil {
		return Histogram{}, err
	}
	o, err := c.create(ctx, KindHistogram, KindHistogram.createCommand(), cmd)
	if err != nil {
		return Histogram{}, err
	}
	o, err = c.finish(ctx, o, p.Name)
	return Histogram{dataObject{o}}, err
}

func (h Histogram) Change(ctx context.Context, p HistogramParams) error {
	cmd, err := p.command()
	if err != nil {
		return err
	}
	return h.edit(ctx, cmd)
}

// Y holds the bin values.
func (h Histogram) Y(ctx context.Context) (Vector, error) {
	return h.outputVector(ctx, "H")
}

// X holds the bin centers.
func (h Histogram) X(ctx context.Context) (Vector, error) {
	return h.outputVector(ctx, "B")
}

func (h Histogram) BinMin(ctx context.Context) (float64, error) {
	return h.queryFloat(ctx, "xMin")
}

func (h Histogram) BinMax(ctx context.Context) (float64, error) {
	return h.queryFloat(ctx, "xMax")
}

func (h Histogram) NumBins(ctx context.Context) (int, error) {
	return h.queryInt(ctx, "nBins")
}

func (h Histogram) Normalization(ctx context.Context) (HistogramNormalization, error) {
	n, err := h.queryInt(ctx, "normalizationType")
	return HistogramNormalization(n), err
}

func (h Histogram) AutoBin(ctx context.Context) (bool, error) {
	return h.queryBool(ctx, "autoBin")
}

type SpectrumParams struct {
	Vector             Ref
	SampleRate         float64
	InterleavedAverage bool
	// FFTLength is a power of two exponent.
	FFTLength   int
	Apodize     bool
	RemoveMean  bool
	VectorUnits string
	RateUnits   string
	// ApodizeFunction: 0 default, 1 Bartlett, 2 Window, 3 Connes,
	// 4 Cosine, 5 Gaussian, 6 Hamming, 7 Hann, 8 Welch, 9 Uniform.
	ApodizeFunction int
	// Sigma applies to the Gaussian apodize function.
	Sigma float64
	// OutputType: 0 amplitude spectral density, 1 power spectral density,
	// 2 amplitude spectrum, 3 power spectrum.
	OutputType int
	Name       string
}

// DefaultSpectrumParams mirrors the server's dialog defaults.
func DefaultSpectrumParams(v Ref) SpectrumParams {
	return SpectrumParams{
		Vector:     v,
		SampleRate: 1,
		FFTLength:  10,
		Apodize:    true,
		RemoveMean: true,
		Sigma:      1,
	}
}

func (p SpectrumParams) command() (protocol.Command, error) {
	h, err := handleOf(p.Vector)
	if err != nil {
		return protocol.Command{}, err
	}
	if p.SampleRate <= 0 {
		return protocol.Command{}, fmt.Errorf("%w: sample rate must be positive", ErrInvalidArgument)
	}
	return protocol.NewCommand("change", h, p.SampleRate, p.InterleavedAverage, p.FFTLength,
		p.Apodize, p.RemoveMean, p.VectorUnits, p.RateUnits, p.ApodizeFunction, p.Sigma, p.OutputType), nil
}

type Spectrum struct{ dataObject }

func (c *Client) NewSpectrum(ctx context.Context, p SpectrumParams) (Spectrum, error) {
	cmd, err := p.command()
	if err != nil {
		return Spectrum{}, err
	}
	o, err := c.create(ctx, KindSpectrum, KindSpectrum.createCommand(), cmd)
	if err != nil {
		return Spectrum{}, err
	}
	o, err = c.finish(ctx, o, p.Name)
	return Spectrum{dataObject{o}}, err
}

func (s Spectrum) Change(ctx context.Context, p SpectrumParams) error {
	cmd, err := p.command()
	if err != nil {
		return err
	}
	return s.edit(ctx, cmd)
}

func (s Spectrum) Y(ctx context.Context) (Vector, error) {
	return s.outputVector(ctx, "S")
}

func (s Spectrum) X(ctx context.Context) (Vector, error) {
	return s.outputVector(ctx, "F")
}

func (s Spectrum) SetVector(ctx context.Context, v Ref) error {
	return s.setInputVector(ctx, "I", v)
}

func (s Spectrum) InterleavedAverage(ctx context.Context) (bool, error) {
	return s.queryBool(ctx, "interleavedAverage")
}

func (s Spectrum) SampleRate(ctx context.Context) (float64, error) {
	return s.queryFloat(ctx, "sampleRate")
}

func (s Spectrum) FFTLength(ctx context.Context) (int, error) {
	return s.queryInt(ctx, "fftLength")
}

func (s Spectrum) Apodize(ctx context.Context) (bool, error) {
	return s.queryBool(ctx, "apodize")
}

func (s Spectrum) RemoveMean(ctx context.Context) (bool, error) {
	return s.queryBool(ctx, "removeMean")
}

func (s Spectrum) VectorUnits(ctx context.Context) (string, error) {
	return s.query(ctx, "vectorUnits")
}

func (s Spectrum) RateUnits(ctx context.Context) (string, error) {
	return s.query(ctx, "rateUnits")
}

func (s Spectrum) ApodizeFunction(ctx context.Context) (int, error) {
	return s.queryInt(ctx, "apodizeFunctionIndex")
}

func (s Spectrum) GaussianSigma(ctx context.Context) (float64, error) {
	return s.queryFloat(ctx, "gaussianSigma")
}

func (s Spectrum) OutputType(ctx context.Context) (int, error) {
	return s.queryInt(ctx, "outputTypeIndex")
}

// Fit exposes the outputs every fit plugin shares.
type Fit struct{ dataObject }

func (f Fit) Parameters(ctx context.Context) (Vector, error) {
	return f.outputVector(ctx, "Parameters Vector")
}

// FitVector holds the fitted values at each x.
func (f Fit) FitVector(ctx context.Context) (Vector, error) {
	return f.outputVector(ctx, "Fit")
}

func (f Fit) Residuals(ctx context.Context) (Vector, error) {
	return f.outputVector(ctx, "Residuals")
}

func (f Fit) Covariance(ctx context.Context) (Vector, error) {
	return f.outputVector(ctx, "Covariance")
}

func (f Fit) ReducedChi2(ctx context.Context) (Scalar, error) {
	return f.outputScalar(ctx, "chi^2/nu")
}

func (f Fit) parameter(ctx context.Context, i int) (float64, error) {
	p, err := f.Parameters(ctx)
	if err != nil {
		return 0, err
	}
	return p.Value(ctx, i)
}

// fitInputs builds the input commands shared by fit plugins. Weights
// are optional.
func fitInputs(x, y, weights Ref) ([]protocol.Command, error) {
	var cmds []protocol.Command
	if weights != nil {
		w, err := inputVector("Weights Vector", weights)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, w)
	}
	xc, err := inputVector("X Vector", x)
	if err != nil {
		return nil, err
	}
	yc, err := inputVector("Y Vector", y)
	if err != nil {
		return nil, err
	}
	return append(cmds, xc, yc), nil
}

type LinearFit struct{ Fit }

// NewLinearFit fits y against x. Passing weights selects the weighted
// plugin.
func (c *Client) NewLinearFit(ctx context.Context, x, y, weights Ref, name string) (LinearFit, error) {
	kind := KindLinearFit
	if weights != nil {
		kind = KindLinearWeightedFit
	}
	init, err := fitInputs(x, y, weights)
	if err != nil {
		return LinearFit{}, err
	}
	o, err := c.create(ctx, kind, kind.createCommand(), init...)
	if err != nil {
		return LinearFit{}, err
	}
	o, err = c.finish(ctx, o, name)
	return LinearFit{Fit{dataObject{o}}}, err
}

func (f LinearFit) Slope(ctx context.Context) (float64, error) {
	return f.parameter(ctx, 1)
}

func (f LinearFit) Intercept(ctx context.Context) (float64, error) {
	return f.parameter(ctx, 0)
}

type PolynomialFit struct{ Fit }

// NewPolynomialFit fits y against x with a polynomial whose order is
// read from a scalar.
func (c *Client) NewPolynomialFit(ctx context.Context, order, x, y, weights Ref, name string) (PolynomialFit, error) {
	kind := KindPolynomialFit
	if weights != nil {
		kind = KindPolynomialWeightFit
	}
	init, err := fitInputs(x, y, weights)
	if err != nil {
		return PolynomialFit{}, err
	}
	oh, err := handleOf(order)
	if err != nil {
		return PolynomialFit{}, err
	}
	init = append(init, protocol.NewCommand("setInputScalar", "Order Scalar", oh))
	o, err := c.create(ctx, kind, kind.createCommand(), init...)
	if err != nil {
		return PolynomialFit{}, err
	}
	o, err = c.finish(ctx, o, name)
	return PolynomialFit{Fit{dataObject{o}}}, err
}

// FlagFilter blanks samples of Y wherever the flag vector is nonzero.
type FlagFilter struct{ dataObject }

func (c *Client) NewFlagFilter(ctx context.Context, y, flag Ref, name string) (FlagFilter, error) {
	yc, err := inputVector("Y Vector", y)
	if err != nil {
		return FlagFilter{}, err
	}
	fc, err := inputVector("Flag Vector", flag)
	if err != nil {
		return FlagFilter{}, err
	}
	o, err := c.create(ctx, KindFlagFilter, KindFlagFilter.createCommand(), yc, fc)
	if err != nil {
		return FlagFilter{}, err
	}
	o, err = c.finish(ctx, o, name)
	return FlagFilter{dataObject{o}}, err
}

func (f FlagFilter) Output(ctx context.Context) (Vector, error) {
	return f.outputVector(ctx, "Y")
}
