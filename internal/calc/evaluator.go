// Package calc implements the keypad calculator used to fill in amounts.
//
// Expressions are built one key at a time and only evaluated on demand.
// Evaluation folds strictly left to right, without operator precedence:
// "2+3*4" is (2+3)*4 = 20.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Keypad labels accepted by Press.
const (
	KeyDecimal   = "."
	KeyDelete    = "Del"
	KeyClear     = "C"
	KeyCalculate = "="
)

// Result is the outcome of an evaluation. A non-empty Fault means the
// expression could not be evaluated; Value is then meaningless.
type Result struct {
	Value float64
	Fault string
}

// String renders the result for display. Faults are embedded in the text
// so callers never have to handle a separate error path.
func (r Result) String() string {
	if r.Fault != "" {
		return "0: " + r.Fault
	}
	if r.Value == math.Trunc(r.Value) {
		return strconv.FormatFloat(r.Value, 'f', 0, 64)
	}
	// halves round away from zero: 1/8 shows as 0.13
	return decimal.NewFromFloat(r.Value).StringFixed(2)
}

// Evaluator holds the expression being typed and the last shown result.
// It is owned by a single caller and is not safe for concurrent use.
type Evaluator struct {
	expression string
	result     string
}

// New returns an evaluator with an empty expression and result "0".
func New() *Evaluator {
	return &Evaluator{result: "0"}
}

// Restore reopens an evaluator with a pair handed back by Snapshot.
func Restore(expression, result string) *Evaluator {
	if result == "" {
		result = "0"
	}
	return &Evaluator{expression: expression, result: result}
}

// Expression returns the current expression text.
func (e *Evaluator) Expression() string { return e.expression }

// Result returns the last evaluated display string.
func (e *Evaluator) Result() string { return e.result }

// Snapshot returns the (expression, result) pair, e.g. on dismiss.
func (e *Evaluator) Snapshot() (expression, result string) {
	return e.expression, e.result
}

// Append adds a digit, decimal point or operator to the expression.
// A decimal point is dropped when the expression already ends with one.
func (e *Evaluator) Append(token string) {
	if token == KeyDecimal && strings.HasSuffix(e.expression, KeyDecimal) {
		return
	}
	e.expression += token
}

// Delete removes the last character of the expression.
func (e *Evaluator) Delete() {
	if e.expression == "" {
		return
	}
	e.expression = e.expression[:len(e.expression)-1]
}

// Clear resets the expression and result.
func (e *Evaluator) Clear() {
	e.expression = ""
	e.result = "0"
}

// Evaluate computes the expression and stores the display result.
func (e *Evaluator) Evaluate() string {
	e.result = Evaluate(e.expression).String()
	return e.result
}

// Press applies one keypad key. Unknown keys are ignored.
func (e *Evaluator) Press(key string) {
	switch key {
	case KeyClear:
		e.Clear()
	case KeyDelete:
		e.Delete()
	case KeyCalculate:
		e.Evaluate()
	default:
		if isKeypadToken(key) {
			e.Append(key)
		}
	}
}

func isKeypadToken(key string) bool {
	if len(key) != 1 {
		return false
	}
	c := key[0]
	return (c >= '0' && c <= '9') || c == '.' || isOperator(c)
}

func isOperator(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/'
}

var (
	errEmptyOperand  = errors.New("empty operand")
	errNotFinite     = errors.New("result out of range")
	errInvalidNumber = errors.New("invalid number")
)

// Evaluate parses and folds expr. It never panics and never returns an
// error; problems are reported through Result.Fault.
func Evaluate(expr string) Result {
	tokens := tokenize(expr)
	if len(tokens) == 0 || tokens[0] == "" {
		return Result{}
	}

	total, err := parseOperand(tokens[0])
	if err != nil {
		return Result{Fault: err.Error()}
	}
	for i := 1; i+1 < len(tokens); i += 2 {
		next, err := parseOperand(tokens[i+1])
		if err != nil {
			return Result{Fault: err.Error()}
		}
		switch tokens[i] {
		case "+":
			total += next
		case "-":
			total -= next
		case "*":
			total *= next
		case "/":
			// a zero divisor leaves the running total untouched
			if next != 0 {
				total /= next
			}
		}
	}
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return Result{Fault: errNotFinite.Error()}
	}
	if total == 0 {
		total = 0 // drop negative zero
	}
	return Result{Value: total}
}

// tokenize splits at operator boundaries. The output alternates operand,
// operator, operand, ... and always has odd length; operands may be empty
// when operators are adjacent or at either end.
func tokenize(expr string) []string {
	if expr == "" {
		return nil
	}
	tokens := make([]string, 0, 8)
	start := 0
	for i := 0; i < len(expr); i++ {
		if isOperator(expr[i]) {
			tokens = append(tokens, expr[start:i], expr[i:i+1])
			start = i + 1
		}
	}
	return append(tokens, expr[start:])
}

func parseOperand(s string) (float64, error) {
	if s == "" {
		return 0, errEmptyOperand
	}
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && s[i] != '.' {
			return 0, fmt.Errorf("%w %q", errInvalidNumber, s)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", errInvalidNumber, s)
	}
	return v, nil
}
