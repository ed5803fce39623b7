package distance

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/repsim/cca"
)

// Kind identifies a representation distance.
type Kind int

const (
	KindPWCCA Kind = iota
	KindSVCCA
	KindLinCKA
	KindOPD
)

func (k Kind) String() string {
	switch k {
	case KindPWCCA:
		return "pwcca"
	case KindSVCCA:
		return "svcca"
	case KindLinCKA:
		return "lincka"
	case KindOPD:
		return "opd"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ErrUnsupportedKind is returned for a kind outside the closed set.
var ErrUnsupportedKind = errors.New("distance: unsupported kind")

// ParseKind resolves a distance name ("pwcca", "svcca", "lincka" or "opd").
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pwcca":
		return KindPWCCA, nil
	case "svcca":
		return KindSVCCA, nil
	case "lincka":
		return KindLinCKA, nil
	case "opd":
		return KindOPD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// Func is a bound distance function between two data matrices.
type Func func(x, y *mat.Dense) (float64, error)

type config struct {
	backend    cca.Backend
	acceptRate float64
	reduceBias bool
}

// Option configures Provider.
type Option func(*config)

// WithBackend sets the CCA backend for the CCA-family kinds. Default svd.
func WithBackend(b cca.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithAcceptRate sets the SVD-truncation mass for SVCCA. Default 0.99.
func WithAcceptRate(rate float64) Option {
	return func(c *config) { c.acceptRate = rate }
}

// WithDebiasing enables the unbiased HSIC estimator for Linear CKA.
func WithDebiasing(on bool) Option {
	return func(c *config) { c.reduceBias = on }
}

// Provider resolves a kind into a bound Func once, so callers never dispatch
// on names inside their loops. The kind and, for CCA-family kinds, the
// backend are validated eagerly.
func Provider(k Kind, opts ...Option) (Func, error) {
	cfg := config{
		backend:    cca.BackendSVD,
		acceptRate: 0.99,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.backend != cca.BackendSVD && cfg.backend != cca.BackendQR {
		return nil, fmt.Errorf("%w: %v", cca.ErrUnsupportedBackend, cfg.backend)
	}

	switch k {
	case KindPWCCA:
		return func(x, y *mat.Dense) (float64, error) {
			return PWCCA(x, y, cfg.backend)
		}, nil
	case KindSVCCA:
		return func(x, y *mat.Dense) (float64, error) {
			return SVCCA(x, y, cfg.acceptRate, cfg.backend)
		}, nil
	case KindLinCKA:
		return func(x, y *mat.Dense) (float64, error) {
			return LinearCKA(x, y, cfg.reduceBias)
		}, nil
	case KindOPD:
		return OrthogonalProcrustes, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKind, k)
	}
}
