package evaluator

import (
	"lox/internal/object"
)

func (e *Evaluator) installBuiltins() {
	e.globals.Define("clock", funcClock(e))
}

// funcClock returns the seconds elapsed since the Unix epoch.
func funcClock(e *Evaluator) *object.Foreign {
	return &object.Foreign{
		Name:   "clock",
		ArityN: 0,
		Fn: func(_ object.EvaluatorContext, _ []object.Object) (object.Object, error) {
			now := e.now()
			return &object.Number{Value: float64(now.UnixNano()) / 1e9}, nil
		},
	}
}
