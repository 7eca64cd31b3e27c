package expression

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine is a wrapper around expr-lang/expr used to evaluate conditional
// display rule expressions against an answer environment.
//
// Programs are compiled with AllowUndefinedVariables so the cache is keyed
// by expression text alone: the answer set grows as the user progresses and
// a rule may reference aliases that have no value yet (they evaluate nil).
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (if needed) and runs an expression against the given environment
func (e *Engine) Evaluate(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, err
	}

	if env == nil {
		env = map[string]interface{}{}
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// EvaluateBool runs an expression and coerces the result to a boolean.
// A non-boolean result is an error: display rules must be predicates.
func (e *Engine) EvaluateBool(expression string, env map[string]interface{}) (bool, error) {
	out, err := e.Evaluate(expression, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", expression, out)
	}
	return b, nil
}

// Validate checks that an expression compiles
func (e *Engine) Validate(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

func (e *Engine) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	options := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("TODAY", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02"), nil
		}),
		expr.Function("LEN", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("LEN requires 1 argument")
			}
			switch v := params[0].(type) {
			case string:
				return len(v), nil
			case []interface{}:
				return len(v), nil
			case []string:
				return len(v), nil
			case nil:
				return 0, nil
			}
			return nil, fmt.Errorf("LEN argument must be string or list")
		}),
		expr.Function("UPPER", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("UPPER requires 1 argument")
			}
			s, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("UPPER argument must be string")
			}
			return strings.ToUpper(s), nil
		}),
		expr.Function("LOWER", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("LOWER requires 1 argument")
			}
			s, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("LOWER argument must be string")
			}
			return strings.ToLower(s), nil
		}),
		// ANSWERED(value) - true when a question has a non-empty answer.
		// nil and "" are unanswered; an empty multi-selection list too.
		expr.Function("ANSWERED", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("ANSWERED requires 1 argument")
			}
			switch v := params[0].(type) {
			case nil:
				return false, nil
			case string:
				return v != "", nil
			case []interface{}:
				return len(v) > 0, nil
			case []string:
				return len(v) > 0, nil
			}
			return true, nil
		}),
		// INCLUDES(list, value) - membership test for multi-selection answers
		expr.Function("INCLUDES", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("INCLUDES requires 2 arguments")
			}
			switch list := params[0].(type) {
			case nil:
				return false, nil
			case []interface{}:
				for _, item := range list {
					if item == params[1] {
						return true, nil
					}
				}
				return false, nil
			case []string:
				s, _ := params[1].(string)
				for _, item := range list {
					if item == s {
						return true, nil
					}
				}
				return false, nil
			}
			return nil, fmt.Errorf("INCLUDES first argument must be a list")
		}),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[expression] = program
	return program, nil
}
