// Package engine provides the Lisp evaluation engine for patch scripts.
// It wraps zygomys in a sandboxed environment, exposes the bilinear patch
// operations as builtins, and produces a scene from user source code.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/ruled/pkg/kernel"
	"github.com/chazu/ruled/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

var (
	// ErrTimeout is returned when an evaluation exceeds its time limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned when a newer evaluation started first.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	ID      scene.ID
}

// EvalResult bundles the full output of an evaluation.
type EvalResult[N any] struct {
	Scene    *scene.Scene[N]
	Errors   []EvalError
	Warnings []EvalWarning
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	timeout time.Duration
	logger  *slog.Logger
}

// WithTimeout sets the evaluation time limit. Non-positive values keep
// DefaultEvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets a logger for this engine instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Engine evaluates patch scripts against one kernel.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine[N any] struct {
	k    kernel.Kernel[N]
	opts options

	mu         sync.Mutex
	generation uint64
}

// New creates an Engine computing with k.
func New[N any](k kernel.Kernel[N], opts ...Option) *Engine[N] {
	o := options{timeout: DefaultEvalTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[N]{k: k, opts: o}
}

// Kernel returns the engine's kernel.
func (e *Engine[N]) Kernel() kernel.Kernel[N] {
	return e.k
}

func (e *Engine[N]) logger() *slog.Logger {
	if e.opts.logger != nil {
		return e.opts.logger
	}
	return Logger()
}

// Evaluate takes Lisp source code and produces a new Scene.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine[N]) Evaluate(source string) (*scene.Scene[N], []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	log := e.logger().With("generation", gen)
	log.Debug("evaluation started", "bytes", len(source))

	ch := make(chan evalResult[N], 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("recovered panic during evaluation", "panic", r)
				ch <- evalResult[N]{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source)
		ch <- evalResult[N]{scene: sc, errors: evalErrs, err: err}
	}()

	sc, evalErrs, err := waitWithTimeout(ch, e.opts.timeout, gen, &e.mu, &e.generation)
	switch {
	case err != nil:
		log.Warn("evaluation failed", "err", err)
	case len(evalErrs) > 0:
		log.Debug("evaluation finished with errors", "errors", len(evalErrs))
	default:
		log.Debug("evaluation finished", "patches", sc.Len(), "queries", len(sc.Queries()))
	}
	return sc, evalErrs, err
}

// Run evaluates source and validates the resulting scene. Validation
// errors are reported as eval errors, warnings as eval warnings.
func (e *Engine[N]) Run(source string) EvalResult[N] {
	result := EvalResult[N]{}

	sc, evalErrs, err := e.Evaluate(source)
	if err != nil {
		result.Errors = append(result.Errors, EvalError{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		result.Errors = evalErrs
		return result
	}

	result.Scene = sc
	for _, f := range scene.Validate(sc) {
		switch f.Severity {
		case scene.SeverityError:
			result.Errors = append(result.Errors, EvalError{Message: f.Error()})
		default:
			result.Warnings = append(result.Warnings, EvalWarning{Message: f.Message, ID: f.ID})
		}
	}
	return result
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine[N]) evaluate(source string) (*scene.Scene[N], []EvalError, error) {
	sc := scene.New[N]()

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return sc, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, e.k, sc)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
