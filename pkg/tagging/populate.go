package tagging

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/antchfx/xpath"
	"golang.org/x/sync/errgroup"

	"github.com/amimof/metal/pkg/logger"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

type NewEvaluatorOption func(*Evaluator)

func WithLogger(l logger.Logger) NewEvaluatorOption {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithWorkers bounds how many nodes are evaluated concurrently
func WithWorkers(n int) NewEvaluatorOption {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Evaluator fans tag evaluation out over nodes
type Evaluator struct {
	workers int
	logger  logger.Logger
}

// Matching returns the system IDs of the nodes whose hardware details match
// definition, in the order of nodes. Nodes without hardware details, or with
// unparsable ones, never match.
func (e *Evaluator) Matching(ctx context.Context, definition string, nodes []*nodesv1.Node) ([]string, error) {
	if err := ValidateDefinition(definition); err != nil {
		return nil, err
	}
	if !IsDefined(definition) {
		return nil, nil
	}

	matched := make([]bool, len(nodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	// Expressions hold evaluation state, one per goroutine
	var pool sync.Pool
	pool.New = func() any {
		expr, _ := Compile(definition)
		return expr
	}

	for i, node := range nodes {
		if node.HardwareDetails == nil || len(node.HardwareDetails.LSHW) == 0 {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			expr := pool.Get()
			defer pool.Put(expr)
			ok, err := Match(expr.(*xpath.Expr), node.HardwareDetails.LSHW)
			if err != nil {
				if errors.Is(err, ErrNoHardwareDetails) {
					return nil
				}
				e.logger.Warn("unable to evaluate tag definition", "node", node.SystemID(), "error", err)
				return nil
			}
			matched[i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var res []string
	for i, ok := range matched {
		if ok {
			res = append(res, nodes[i].SystemID())
		}
	}
	return res, nil
}

func NewEvaluator(opts ...NewEvaluatorOption) *Evaluator {
	e := &Evaluator{
		workers: runtime.GOMAXPROCS(0),
		logger:  logger.ConsoleLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
