package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
)

// Candidate describes one extension that may provide a native distance
// function.
type Candidate struct {
	Name string
	// VersionQuery is a statement returning a single value when the
	// extension is loaded.
	VersionQuery string
	// Function is the name of the cosine-distance SQL function.
	Function string
}

// Known lists the recognised extensions in probing order.
var Known = []Candidate{
	{Name: "vec0", VersionQuery: "SELECT vec_version()", Function: "vec_distance_cosine"},
	{Name: "sqlite-vss", VersionQuery: "SELECT vector_version()", Function: "vector_distance_cosine"},
	{Name: "vss", VersionQuery: "SELECT vss_version()", Function: "vss_distance_cosine"},
}

// Lookup returns the known candidates matching names, preserving order.
// Unknown names are reported in the second return value.
func Lookup(names []string) ([]Candidate, []string) {
	var found []Candidate
	var unknown []string
	for _, name := range names {
		ok := false
		for _, c := range Known {
			if c.Name == name {
				found = append(found, c)
				ok = true
				break
			}
		}
		if !ok {
			unknown = append(unknown, name)
		}
	}
	return found, unknown
}

// Strategy is the resolved search strategy.
type Strategy struct {
	// Native is true when Function can be used inside SQL.
	Native bool
	// Extension is the candidate name that passed both probes.
	Extension string
	// Function is the SQL distance function name.
	Function string
	// Err explains why the fallback was chosen.
	Err error
}

// Method names the search path.
func (s Strategy) Method() string {
	if s.Native {
		return "native"
	}
	return "fallback"
}

// Resolver probes the candidates once and caches the outcome, including
// the fallback outcome, for its lifetime.
type Resolver struct {
	db         *sql.DB
	candidates []Candidate
	dimension  int
	logger     *slog.Logger

	once     sync.Once
	strategy Strategy
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCandidates overrides the probing list.
func WithCandidates(candidates []Candidate) Option {
	return func(r *Resolver) { r.candidates = candidates }
}

// WithDimension sets the dimension of the zero vectors used for probing.
func WithDimension(dim int) Option {
	return func(r *Resolver) { r.dimension = dim }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New creates a Resolver over db.
func New(db *sql.DB, opts ...Option) *Resolver {
	r := &Resolver{db: db, candidates: Known, dimension: vector.Dimension}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve returns the cached strategy, probing on first use. The probe
// ignores cancellation of ctx so that a caller that has already gone away
// cannot pin the process to the fallback path.
func (r *Resolver) Resolve(ctx context.Context) Strategy {
	r.once.Do(func() {
		r.strategy = r.probe(context.WithoutCancel(ctx))
		if r.strategy.Native {
			r.logger.Info("native distance function detected", "extension", r.strategy.Extension, "function", r.strategy.Function)
		} else {
			r.logger.Info("using in-process distance fallback", "reason", r.strategy.Err)
		}
	})
	return r.strategy
}

func (r *Resolver) probe(ctx context.Context) Strategy {
	if len(r.candidates) == 0 {
		return Strategy{Err: vecerr.ExtensionUnavailable("resolve", "no candidate extensions configured")}
	}
	zero, err := vector.EncodeEmbedding(make([]float32, r.dimension))
	if err != nil {
		return Strategy{Err: vecerr.ExtensionUnavailable("resolve", "%v", err)}
	}
	var last error
	for _, c := range r.candidates {
		if err := r.probeVersion(ctx, c); err != nil {
			r.logger.Debug("extension version probe failed", "extension", c.Name, "error", err)
			last = err
			continue
		}
		if err := r.probeFunction(ctx, c, zero); err != nil {
			r.logger.Debug("extension reports a version but distance function failed", "extension", c.Name, "function", c.Function, "error", err)
			last = err
			continue
		}
		return Strategy{Native: true, Extension: c.Name, Function: c.Function}
	}
	return Strategy{Err: vecerr.ExtensionUnavailable("resolve", "no native distance function available: %v", last)}
}

func (r *Resolver) probeVersion(ctx context.Context, c Candidate) error {
	var version any
	return r.db.QueryRowContext(ctx, c.VersionQuery).Scan(&version)
}

func (r *Resolver) probeFunction(ctx context.Context, c Candidate, zero []byte) error {
	var distance sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s(?, ?)", c.Function), zero, zero).Scan(&distance); err != nil {
		return err
	}
	if !distance.Valid {
		return fmt.Errorf("%s returned NULL", c.Function)
	}
	return nil
}
