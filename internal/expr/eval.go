package expr

import (
	"fmt"
	"math"

	"github.com/varlor/calculations/internal/dataset"
)

// Value is the outcome of evaluating a compiled expression: a single
// scalar when the expression references no columns, otherwise one value
// per dataset row.
type Value struct {
	Scalar   float64
	Sequence []float64
	RowWise  bool
}

// Eval evaluates the artifact against ds, which must still match the
// reference column layout the expression was compiled for.
func (a *Artifact) Eval(ds *dataset.Dataset) (Value, error) {
	if ds.ColumnCount() != len(a.columns) {
		return Value{}, fmt.Errorf("dataset no longer matches the columns the expression was compiled against")
	}

	scratch := make([]float64, 0, 16)

	if len(a.refs) == 0 {
		result, err := a.run(scratch)
		if err != nil {
			return Value{}, err
		}
		return Value{Scalar: result}, nil
	}

	sequence := make([]float64, 0, ds.Len())
	for _, point := range ds.Points() {
		for _, slot := range a.refs {
			column := a.columns[slot]
			field, ok := point.Get(column)
			if !ok {
				return Value{}, fmt.Errorf("column %q holds a missing or non-numeric value", column)
			}
			num, isNum := field.Number()
			if !isNum {
				return Value{}, fmt.Errorf("column %q holds a missing or non-numeric value", column)
			}
			a.slots[slot] = num
		}

		result, err := a.run(scratch)
		if err != nil {
			return Value{}, err
		}
		sequence = append(sequence, result)
	}
	return Value{Sequence: sequence, RowWise: true}, nil
}

// run executes the RPN program against the current slot values.
func (a *Artifact) run(scratch []float64) (float64, error) {
	stack := scratch[:0]
	for _, ins := range a.prog {
		switch ins.op {
		case opConst:
			stack = append(stack, ins.value)
		case opLoad:
			stack = append(stack, a.slots[ins.slot])
		case opNeg:
			stack[len(stack)-1] = -stack[len(stack)-1]
		case opCall:
			args := stack[len(stack)-ins.argc:]
			result := ins.fn.apply(args)
			stack = stack[:len(stack)-ins.argc]
			stack = append(stack, result)
		default:
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, applyBinary(ins.op, left, right))
		}
	}

	result := stack[0]
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("expression produced a non-finite value")
	}
	return result, nil
}

func applyBinary(op opcode, left, right float64) float64 {
	switch op {
	case opAdd:
		return left + right
	case opSub:
		return left - right
	case opMul:
		return left * right
	case opDiv:
		return left / right
	case opMod:
		return math.Mod(left, right)
	default:
		return math.Pow(left, right)
	}
}
