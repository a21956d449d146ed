package expr

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/gogpu/gpuplot/axis"
)

// Convolution strategy thresholds, by kernel length.
const (
	// DirectKernelMax is the largest kernel convolved directly.
	DirectKernelMax = 64

	// ChunkedKernelMax is the largest kernel convolved block by block
	// (overlap-add). Longer kernels use one FFT over the whole signal.
	ChunkedKernelMax = 1024
)

// DefaultBins is the histogram bin count when none is given.
const DefaultBins = 64

// RegisterBuiltins adds the built-in texture and shader computations.
func RegisterBuiltins(r *Registry) error {
	textures := map[string]TextureComputation{
		"histogram": TextureFunc{
			Sig: Signature{Args: []string{"input", "bins", "filter_values"}, Options: []string{"filter"}, Required: []string{"input"}},
			Fn:  histogram,
		},
		"convolve": TextureFunc{
			Sig: Signature{Args: []string{"input", "kernel"}, Required: []string{"input", "kernel"}},
			Fn:  convolve,
		},
		"fft": TextureFunc{
			Sig: Signature{Args: []string{"input"}, Required: []string{"input"}},
			Fn:  func(ctx *Context, a Args, _ map[string]string, _ axis.Reader) (*Texture, error) { return transform(ctx, a, false) },
		},
		"ifft": TextureFunc{
			Sig: Signature{Args: []string{"input"}, Required: []string{"input"}},
			Fn:  func(ctx *Context, a Args, _ map[string]string, _ axis.Reader) (*Texture, error) { return transform(ctx, a, true) },
		},
	}
	for _, name := range []string{"histogram", "convolve", "fft", "ifft"} {
		if err := r.RegisterTexture(name, textures[name]); err != nil {
			return err
		}
	}
	for _, c := range combinators() {
		if err := r.RegisterShader(c.name, c.fn); err != nil {
			return err
		}
	}
	return nil
}

// histogram counts input values into equal-width bins spanning the
// extent of input. With the filter option, only elements whose
// filter_values entry (input by default) lies inside that filter axis
// are counted. The bin range ignores the filter so bins stay put while
// the filter moves.
func histogram(ctx *Context, a Args, opts map[string]string, axes axis.Reader) (*Texture, error) {
	values, ch, err := a.Values("input")
	if err != nil {
		return nil, err
	}
	if ch != 1 {
		return nil, fmt.Errorf("histogram input must have one channel, got %d", ch)
	}
	nb, err := a.Scalar("bins", DefaultBins)
	if err != nil {
		return nil, err
	}
	bins := int(nb)
	if bins < 1 || float64(bins) != nb {
		return nil, fmt.Errorf("histogram bins must be a positive integer, got %g", nb)
	}

	test := values
	if a.Has("filter_values") {
		fv, fch, err := a.Values("filter_values")
		if err != nil {
			return nil, err
		}
		if fch != 1 || len(fv) != len(values) {
			return nil, fmt.Errorf("histogram filter_values must match input length %d", len(values))
		}
		test = fv
	}
	var keep func(i int) bool
	if qk := opts["filter"]; qk != "" {
		if s, ok := axes.State(axis.FilterID(qk)); ok {
			keep = func(i int) bool { return s.Contains(float64(test[i])) }
		}
	}

	counts := make([]float32, bins)
	d, ok := axis.Extent(values)
	if !ok {
		return ctx.Upload("histogram", counts, 1)
	}
	if d.Max == d.Min {
		for i, v := range values {
			if isFinite(v) && (keep == nil || keep(i)) {
				counts[bins/2]++
			}
		}
		return ctx.Upload("histogram", counts, 1)
	}

	h := stats.NewLinearHist(d.Min, d.Max, bins)
	for i, v := range values {
		if !isFinite(v) || (keep != nil && !keep(i)) {
			continue
		}
		h.Add(float64(v))
	}
	// Every value lies in [Min, Max]; out-of-range counts come from the
	// closed upper edge and rounding.
	low, hb, high := h.Counts()
	hb[0] += low
	hb[len(hb)-1] += high
	for i, c := range hb {
		counts[i] = float32(c)
	}
	return ctx.Upload("histogram", counts, 1)
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// convolve returns input convolved with kernel, same length as input,
// with the kernel centered at (len(kernel)-1)/2.
func convolve(ctx *Context, a Args, _ map[string]string, _ axis.Reader) (*Texture, error) {
	in, ch, err := a.Values("input")
	if err != nil {
		return nil, err
	}
	ker, kch, err := a.Values("kernel")
	if err != nil {
		return nil, err
	}
	if ch != 1 || kch != 1 {
		return nil, fmt.Errorf("convolve operands must have one channel")
	}
	if len(ker) == 0 {
		return nil, fmt.Errorf("convolve kernel is empty")
	}
	return ctx.Upload("convolve", Convolve(in, ker), 1)
}

// Convolve computes the centered, same-length convolution of in and ker,
// picking a strategy by kernel length.
func Convolve(in, ker []float32) []float32 {
	switch m := len(ker); {
	case m <= DirectKernelMax:
		return convolveDirect(in, ker)
	case m <= ChunkedKernelMax:
		return convolveChunked(in, ker)
	default:
		return convolveFFT(in, ker)
	}
}

func same(full []float64, n, m int) []float32 {
	out := make([]float32, n)
	c := (m - 1) / 2
	for i := range out {
		out[i] = float32(full[i+c])
	}
	return out
}

func convolveDirect(in, ker []float32) []float32 {
	n, m := len(in), len(ker)
	out := make([]float32, n)
	c := (m - 1) / 2
	for i := range out {
		var sum float64
		for k := range m {
			j := i + c - k
			if j >= 0 && j < n {
				sum += float64(in[j]) * float64(ker[k])
			}
		}
		out[i] = float32(sum)
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// convolveChunked is overlap-add: the input is cut into blocks, each
// block is convolved by FFT and the tails are summed.
func convolveChunked(in, ker []float32) []float32 {
	n, m := len(in), len(ker)
	if n == 0 {
		return nil
	}
	size := nextPow2(2 * m)
	block := size - m + 1
	fft := fourier.NewFFT(size)

	kbuf := make([]float64, size)
	for i, v := range ker {
		kbuf[i] = float64(v)
	}
	kc := fft.Coefficients(nil, kbuf)

	full := make([]float64, n+m-1)
	seg := make([]float64, size)
	var coeff []complex128
	var res []float64
	for start := 0; start < n; start += block {
		clear(seg)
		end := min(start+block, n)
		for i := start; i < end; i++ {
			seg[i-start] = float64(in[i])
		}
		coeff = fft.Coefficients(coeff, seg)
		for i := range coeff {
			coeff[i] *= kc[i]
		}
		res = fft.Sequence(res, coeff)
		for i := 0; i < end-start+m-1; i++ {
			full[start+i] += res[i] / float64(size)
		}
	}
	return same(full, n, m)
}

func convolveFFT(in, ker []float32) []float32 {
	n, m := len(in), len(ker)
	if n == 0 {
		return nil
	}
	size := nextPow2(n + m - 1)
	fft := fourier.NewFFT(size)
	a := make([]float64, size)
	b := make([]float64, size)
	for i, v := range in {
		a[i] = float64(v)
	}
	for i, v := range ker {
		b[i] = float64(v)
	}
	ac := fft.Coefficients(nil, a)
	bc := fft.Coefficients(nil, b)
	for i := range ac {
		ac[i] *= bc[i]
	}
	seq := fft.Sequence(nil, ac)
	full := make([]float64, n+m-1)
	for i := range full {
		full[i] = seq[i] / float64(size)
	}
	return same(full, n, m)
}

// transform runs a complex FFT over input (real with one channel,
// interleaved complex with two) and returns a two-channel texture.
// The inverse transform is normalized by 1/n.
func transform(ctx *Context, a Args, inverse bool) (*Texture, error) {
	values, ch, err := a.Values("input")
	if err != nil {
		return nil, err
	}
	if ch != 1 && ch != 2 {
		return nil, fmt.Errorf("fft input must have one or two channels, got %d", ch)
	}
	label := "fft"
	if inverse {
		label = "ifft"
	}
	n := len(values) / ch
	if n == 0 {
		return ctx.Upload(label, nil, 2)
	}
	seq := make([]complex128, n)
	for i := range seq {
		if ch == 1 {
			seq[i] = complex(float64(values[i]), 0)
		} else {
			seq[i] = complex(float64(values[2*i]), float64(values[2*i+1]))
		}
	}
	fft := fourier.NewCmplxFFT(n)
	var out []complex128
	scale := 1.0
	if inverse {
		out = fft.Sequence(nil, seq)
		scale = 1 / float64(n)
	} else {
		out = fft.Coefficients(nil, seq)
	}
	data := make([]float32, 2*n)
	for i, c := range out {
		data[2*i] = float32(real(c) * scale)
		data[2*i+1] = float32(imag(c) * scale)
	}
	return ctx.Upload(label, data, 2)
}
