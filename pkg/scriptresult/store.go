package scriptresult

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amimof/metal/pkg/logger"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

// ErrResultLocked is returned when a machine tries to overwrite a result
var ErrResultLocked = errors.New("script result can not be overwritten")

// Args are the values uploaded for a script result. Nil slices and pointers
// mean the value was not supplied.
type Args struct {
	ExitStatus      *int
	Output          []byte
	Stdout          []byte
	Stderr          []byte
	Result          []byte
	ScriptVersionID *int
	TimedOut        bool
}

// Hook post-processes the output of a built-in commissioning script
type Hook func(ctx context.Context, node *nodesv1.Node, stdout []byte, exitStatus *int) error

// ErrorRecorder records a SCRIPT_RESULT_ERROR event for node
type ErrorRecorder func(ctx context.Context, node *nodesv1.Node, description string)

type NewStoreOption func(*Store)

func WithLogger(l logger.Logger) NewStoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithHook runs h for commissioning results of the script called name
func WithHook(name string, h Hook) NewStoreOption {
	return func(s *Store) {
		s.hooks[name] = h
	}
}

func WithErrorRecorder(r ErrorRecorder) NewStoreOption {
	return func(s *Store) {
		s.recordError = r
	}
}

// WithClock overrides the time source used by the save hook
func WithClock(now func() time.Time) NewStoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Store applies uploaded values to script results
type Store struct {
	hooks       map[string]Hook
	recordError ErrorRecorder
	logger      logger.Logger
	now         func() time.Time
}

// HasHook is true when name is a built-in node-info script
func (s *Store) HasHook(name string) bool {
	_, ok := s.hooks[name]
	return ok
}

// StoreResult applies args to res. script is nil for results that are not
// linked to a stored script. Nothing is persisted; callers save res afterwards.
func (s *Store) StoreResult(ctx context.Context, node *nodesv1.Node, set *scriptsv1.ScriptSet, script *scriptsv1.Script, res *scriptsv1.ScriptResult, args Args) error {
	// Controllers re-run their scripts on every start and reuse their script set
	if !node.IsController() {
		if err := checkUnused(res); err != nil {
			return err
		}
	}

	switch {
	case args.TimedOut:
		res.Status = scriptsv1.StatusTimedOut
	case args.ExitStatus != nil:
		exit := *args.ExitStatus
		res.ExitStatus = &exit
		switch {
		case exit == 0:
			res.Status = scriptsv1.StatusPassed
		case res.Status == scriptsv1.StatusInstalling:
			res.Status = scriptsv1.StatusFailedInstalling
		default:
			res.Status = scriptsv1.StatusFailed
		}
	}

	if args.Output != nil {
		res.Output = args.Output
	}
	if args.Stdout != nil {
		res.Stdout = args.Stdout
	}
	if args.Stderr != nil {
		res.Stderr = args.Stderr
	}
	if args.Result != nil {
		res.Result = args.Result
		parsed, err := ReadResults(res.Result)
		if err != nil {
			s.reportError(ctx, node, fmt.Sprintf("%s(%s) sent a script result with invalid YAML: %s", node.FQDN(), node.SystemID(), err.Error()))
		} else {
			switch Status(parsed) {
			case "passed":
				res.Status = scriptsv1.StatusPassed
			case "failed":
				res.Status = scriptsv1.StatusFailed
			case "degraded":
				res.Status = scriptsv1.StatusDegraded
			case "timedout":
				res.Status = scriptsv1.StatusTimedOut
			}
		}
	}

	if script != nil {
		if args.ScriptVersionID != nil {
			vid := *args.ScriptVersionID
			for _, v := range script.PreviousVersions() {
				if v.ID == vid {
					res.ScriptVersionID = &vid
					break
				}
			}
			if res.ScriptVersionID == nil {
				s.reportError(ctx, node, fmt.Sprintf("%s(%s) sent a script result for %s(%d) with an unknown script version(%d).",
					node.FQDN(), node.SystemID(), script.GetName(), script.ID, vid))
			}
		} else if current := script.Current(); current != nil {
			id := current.ID
			res.ScriptVersionID = &id
		}
	}

	if set.ResultType == scriptsv1.ResultTypeCommissioning {
		if hook, ok := s.hooks[res.Name()]; ok {
			if err := hook(ctx, node, res.Stdout, res.ExitStatus); err != nil {
				return fmt.Errorf("running %s hook: %w", res.Name(), err)
			}
		}
	}

	s.BeforeSave(res)
	return nil
}

// BeforeSave stamps the start time when a result starts running and the end
// time when it reaches a final state. Callers run it before every save.
func (s *Store) BeforeSave(res *scriptsv1.ScriptResult) {
	now := s.now()
	if res.Started == nil && res.Status == scriptsv1.StatusRunning {
		res.Started = &now
		return
	}
	if res.Ended == nil {
		switch res.Status {
		case scriptsv1.StatusPassed, scriptsv1.StatusFailed, scriptsv1.StatusTimedOut, scriptsv1.StatusAborted:
			res.Ended = &now
		}
	}
}

func (s *Store) reportError(ctx context.Context, node *nodesv1.Node, msg string) {
	s.logger.Error(msg, "node", node.SystemID())
	if s.recordError != nil {
		s.recordError(ctx, node, msg)
	}
}

func checkUnused(res *scriptsv1.ScriptResult) error {
	switch res.Status {
	case scriptsv1.StatusPending, scriptsv1.StatusInstalling, scriptsv1.StatusRunning:
	default:
		return fmt.Errorf("%w: status is %s", ErrResultLocked, res.Status)
	}
	if len(res.Output) > 0 || len(res.Stdout) > 0 || len(res.Stderr) > 0 || len(res.Result) > 0 {
		return fmt.Errorf("%w: output has already been stored", ErrResultLocked)
	}
	if res.ScriptVersionID != nil {
		return fmt.Errorf("%w: script version has already been recorded", ErrResultLocked)
	}
	return nil
}

// String renders a result as <system_id>/<name>
func String(node *nodesv1.Node, res *scriptsv1.ScriptResult) string {
	return fmt.Sprintf("%s/%s", node.SystemID(), res.Name())
}

func NewStore(opts ...NewStoreOption) *Store {
	s := &Store{
		hooks:  map[string]Hook{},
		logger: logger.ConsoleLogger{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
