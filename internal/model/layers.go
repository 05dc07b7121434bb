package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const layerNormEps = 1e-5

// linear computes x·Wᵀ + b with W stored as [out, in], matching PyTorch.
type linear struct {
	w *mat.Dense
	b []float64
}

func (l *linear) forward(x mat.Matrix) *mat.Dense {
	var y mat.Dense
	y.Mul(x, l.w.T())
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(y.RawRowView(i), l.b)
	}
	return &y
}

type layerNorm struct {
	gamma, beta []float64
}

// forward normalizes every row of x in place.
func (n *layerNorm) forward(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		mean := floats.Sum(row) / float64(cols)
		var variance float64
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float64(cols)
		inv := 1 / math.Sqrt(variance+layerNormEps)
		for j := range row {
			row[j] = (row[j]-mean)*inv*n.gamma[j] + n.beta[j]
		}
	}
	return x
}

type feedForward struct {
	up, down linear
}

func (f *feedForward) forward(x *mat.Dense) *mat.Dense {
	h := f.up.forward(x)
	h.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, h)
	return f.down.forward(h)
}

// attention is multi-head scaled dot-product attention with a packed
// input projection, laid out like torch.nn.MultiheadAttention.
type attention struct {
	q, k, v linear
	out     linear
	heads   int
	headDim int
}

func newAttention(inW *mat.Dense, inB []float64, out linear, dim, heads int) attention {
	part := func(i int) linear {
		return linear{
			w: inW.Slice(i*dim, (i+1)*dim, 0, dim).(*mat.Dense),
			b: inB[i*dim : (i+1)*dim],
		}
	}
	return attention{
		q: part(0), k: part(1), v: part(2),
		out:     out,
		heads:   heads,
		headDim: dim / heads,
	}
}

// forward attends from query rows to kv rows. When causal is set, row i
// only sees kv rows 0..i.
func (a *attention) forward(query, kv *mat.Dense, causal bool) *mat.Dense {
	n, _ := query.Dims()
	m, _ := kv.Dims()

	q := a.q.forward(query)
	k := a.k.forward(kv)
	v := a.v.forward(kv)

	concat := mat.NewDense(n, a.heads*a.headDim, nil)
	scale := 1 / math.Sqrt(float64(a.headDim))

	for h := 0; h < a.heads; h++ {
		lo, hi := h*a.headDim, (h+1)*a.headDim

		var scores mat.Dense
		scores.Mul(q.Slice(0, n, lo, hi), k.Slice(0, m, lo, hi).T())
		scores.Scale(scale, &scores)
		if causal {
			for i := 0; i < n; i++ {
				row := scores.RawRowView(i)
				for j := i + 1; j < m; j++ {
					row[j] = math.Inf(-1)
				}
			}
		}
		softmaxRows(&scores)

		var head mat.Dense
		head.Mul(&scores, v.Slice(0, m, lo, hi))
		concat.Slice(0, n, lo, hi).(*mat.Dense).Copy(&head)
	}
	return a.out.forward(concat)
}

func softmaxRows(x *mat.Dense) {
	rows, _ := x.Dims()
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		peak := floats.Max(row)
		for j, v := range row {
			row[j] = math.Exp(v - peak)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
}

// positionalEncoding returns the fixed sinusoidal table, [maxLen, dim].
func positionalEncoding(maxLen, dim int) *mat.Dense {
	pe := mat.NewDense(maxLen, dim, nil)
	for pos := 0; pos < maxLen; pos++ {
		row := pe.RawRowView(pos)
		for i := 0; i < dim; i += 2 {
			angle := float64(pos) * math.Exp(float64(i)*(-math.Log(10000.0)/float64(dim)))
			row[i] = math.Sin(angle)
			if i+1 < dim {
				row[i+1] = math.Cos(angle)
			}
		}
	}
	return pe
}
