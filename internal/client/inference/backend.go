package inference

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"golang.org/x/sync/errgroup"
)

// Backend computes dense layers. Init reports whether the backend can run
// on this host.
type Backend interface {
	Name() string
	Init() error
	Dense(ctx context.Context, l *Layer, in, out []float32) error
}

// Backend names accepted by ByName, fastest first.
const (
	NameParallel = "parallel"
	NameUnrolled = "unrolled"
	NameCPU      = "cpu"
)

func ByName(name string) (Backend, error) {
	switch name {
	case NameParallel:
		return NewParallel(0), nil
	case NameUnrolled:
		return Unrolled{}, nil
	case NameCPU:
		return CPU{}, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", common.ErrValidation, name)
}

// CPU is the baseline backend.
type CPU struct{}

func (CPU) Name() string { return NameCPU }
func (CPU) Init() error  { return nil }

func (CPU) Dense(_ context.Context, l *Layer, in, out []float32) error {
	for o, row := range l.Weights {
		var sum float32
		for i, w := range row {
			sum += w * in[i]
		}
		out[o] = sum + l.Bias[o]
	}
	return nil
}

// Unrolled computes dot products four terms at a time.
type Unrolled struct{}

func (Unrolled) Name() string { return NameUnrolled }
func (Unrolled) Init() error  { return nil }

func (Unrolled) Dense(_ context.Context, l *Layer, in, out []float32) error {
	for o, row := range l.Weights {
		out[o] = dot4(row, in) + l.Bias[o]
	}
	return nil
}

func dot4(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(a) &^ 3
	for i := 0; i < n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for i := n; i < len(a); i++ {
		s0 += a[i] * b[i]
	}
	return s0 + s1 + s2 + s3
}

// Parallel splits output units across goroutines.
type Parallel struct {
	workers int
}

// NewParallel uses GOMAXPROCS workers when workers <= 0.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parallel{workers: workers}
}

func (p *Parallel) Name() string { return NameParallel }

func (p *Parallel) Init() error {
	if p.workers < 2 {
		return fmt.Errorf("%w: parallel backend needs 2 or more workers, have %d", common.ErrInferenceFailure, p.workers)
	}
	return nil
}

func (p *Parallel) Dense(ctx context.Context, l *Layer, in, out []float32) error {
	n := l.Out()
	chunk := (n + p.workers - 1) / p.workers

	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for o := lo; o < hi; o++ {
				out[o] = dot4(l.Weights[o], in) + l.Bias[o]
			}
			return nil
		})
	}
	return g.Wait()
}
