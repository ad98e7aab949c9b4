// Package obfuscator builds the level-based pass pipeline and runs PHP source
// through it.
package obfuscator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/runstack/obfuscator/internal/config"
	"github.com/runstack/obfuscator/internal/logging"
	"github.com/runstack/obfuscator/internal/scrambler"
	"github.com/runstack/obfuscator/internal/transformer"
)

// State is the position of one obfuscation call in the pipeline.
type State int

const (
	StateConfiguring State = iota
	StateLevelValidated
	StatePassesLoaded
	StateTransforming
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "Configuring"
	case StateLevelValidated:
		return "LevelValidated"
	case StatePassesLoaded:
		return "PassesLoaded"
	case StateTransforming:
		return "Transforming"
	case StateDone:
		return "Done"
	case StateError:
		return "Error"
	}
	return "Unknown"
}

// Result is the outcome of one successful call.
type Result struct {
	Output   string
	Level    int
	Passes   []string          // names of the passes applied, in order
	Mappings map[string]string // original -> generated variable names; empty below level 2
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRegistry replaces the built-in level registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithStateObserver registers a callback invoked on every state transition.
func WithStateObserver(fn func(State)) Option {
	return func(e *Engine) { e.observer = fn }
}

// Engine runs PHP source through the passes of a level. It holds no
// per-call state: every call builds fresh passes, so one Engine can serve
// concurrent calls.
type Engine struct {
	cfg      config.LevelConfig
	parser   *Parser
	registry *Registry
	policy   *scrambler.PreservationPolicy
	observer func(State)
}

// NewEngine builds an engine for cfg. The level itself is checked on every
// call (and by Validate).
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p, err := NewParser(cfg.ParserMode)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg.LevelConfig(),
		parser:   p,
		registry: DefaultRegistry(),
		policy:   scrambler.NewPreservationPolicy(scrambler.DefaultReservedWords().With(cfg.ReservedWords...)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the pipeline view of the configuration.
func (e *Engine) Config() config.LevelConfig {
	return e.cfg
}

// MaxLevel returns the highest level this engine can run.
func (e *Engine) MaxLevel() int {
	return e.registry.Max()
}

// Levels lists the registered levels as "level:pass".
func (e *Engine) Levels() []string {
	return e.registry.Levels()
}

// Validate checks the requested level without processing anything.
func (e *Engine) Validate() error {
	return e.validateLevel()
}

// run tracks the state of a single call.
type run struct {
	state    State
	observer func(State)
}

func (r *run) transition(to State) {
	logging.V(logging.LevelPipeline).Infof("pipeline: %s -> %s", r.state, to)
	r.state = to
	if r.observer != nil {
		r.observer(to)
	}
}

func (r *run) fail(err error) error {
	r.transition(StateError)
	return err
}

// Process parses src, runs every pass of the configured level over the tree
// and renders the result. src is never modified.
func (e *Engine) Process(src []byte) (*Result, error) {
	r := &run{state: StateConfiguring, observer: e.observer}
	if r.observer != nil {
		r.observer(StateConfiguring)
	}

	if err := e.validateLevel(); err != nil {
		return nil, r.fail(err)
	}
	r.transition(StateLevelValidated)

	root, err := e.parser.Parse(src)
	if err != nil {
		return nil, r.fail(err)
	}
	passes, err := e.loadPasses()
	if err != nil {
		return nil, r.fail(err)
	}
	r.transition(StatePassesLoaded)

	r.transition(StateTransforming)
	result := &Result{Level: e.cfg.Level, Mappings: map[string]string{}}
	root = applyPasses(root, passes, result)
	result.Output = Render(root)
	r.transition(StateDone)

	return result, nil
}

// ObfuscateCode is Process returning only the output text.
func (e *Engine) ObfuscateCode(src string) (string, error) {
	res, err := e.Process([]byte(src))
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// ProcessFile reads and processes one file. A missing or unreadable input is
// an *IOError.
func (e *Engine) ProcessFile(inputPath string) (*Result, error) {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, &IOError{Op: "read", Path: inputPath, Err: err}
	}
	res, err := e.Process(src)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = inputPath
		}
		return nil, err
	}
	return res, nil
}

// ObfuscateFile processes inputPath and writes the output to outputPath,
// creating its directory if needed.
func (e *Engine) ObfuscateFile(inputPath, outputPath string) error {
	res, err := e.ProcessFile(inputPath)
	if err != nil {
		return err
	}
	return WriteOutput(outputPath, res.Output)
}

// WriteOutput writes content to path, creating parent directories. Writes are
// not atomic: a failure can leave a partial file behind.
func WriteOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (e *Engine) validateLevel() error {
	max := e.registry.Max()
	if e.cfg.Level < 1 || e.cfg.Level > max {
		return &ConfigurationError{
			Field:  "level",
			Value:  e.cfg.Level,
			Reason: levelRangeReason(max),
		}
	}
	return nil
}

func levelRangeReason(max int) string {
	if max < 1 {
		return "no obfuscation levels are registered"
	}
	if max == 1 {
		return "the only available level is 1"
	}
	return fmt.Sprintf("must be between 1 and %d", max)
}

// loadPasses builds the passes for levels 1..Level in order. Levels whose
// factory returns nil contribute nothing.
func (e *Engine) loadPasses() ([]transformer.Pass, error) {
	passes := make([]transformer.Pass, 0, e.cfg.Level)
	for level := 1; level <= e.cfg.Level; level++ {
		entry, ok := e.registry.lookup(level)
		if !ok {
			return nil, &ConfigurationError{Field: "level", Value: level, Reason: "no pass registered for this level"}
		}
		if pass := entry.factory(e.cfg, e.policy); pass != nil {
			passes = append(passes, pass)
		}
	}
	return passes, nil
}

func applyPasses(root ast.Vertex, passes []transformer.Pass, result *Result) ast.Vertex {
	for _, pass := range passes {
		logging.V(logging.LevelPipeline).Infof("pipeline: applying %s", pass.Name())
		root = pass.Transform(root)
		result.Passes = append(result.Passes, pass.Name())
		if m, ok := pass.(transformer.MappingReporter); ok {
			for k, v := range m.Mappings() {
				result.Mappings[k] = v
			}
		}
	}
	return root
}
