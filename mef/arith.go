package mef

import (
	"math"

	"github.com/astrokit/mefkit/fits"
)

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
)

func (op arithOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "subtract"
	case opMul:
		return "multiply"
	default:
		return "divide"
	}
}

// Add adds operand to every extension in place. The operand may be a scalar
// (applied uniformly), a provider with a matching extension count (paired in
// order), or a single-extension view (broadcast). Masks combine by bitwise
// OR and uncertainties propagate in quadrature.
func (p *Provider) Add(operand any) error { return p.operate(opAdd, operand, nil) }

// Subtract subtracts operand from every extension in place.
func (p *Provider) Subtract(operand any) error { return p.operate(opSub, operand, nil) }

// Multiply multiplies every extension by operand in place.
func (p *Provider) Multiply(operand any) error { return p.operate(opMul, operand, nil) }

// Divide divides every extension by operand in place.
func (p *Provider) Divide(operand any) error { return p.operate(opDiv, operand, nil) }

// operate applies op over the extensions selected by indices (all when nil).
// Shape agreement is validated up front so a mismatch mutates nothing.
func (p *Provider) operate(op arithOp, operand any, indices []int) error {
	if err := p.materialize(); err != nil {
		return err
	}
	if indices == nil {
		indices = make([]int, p.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	switch v := operand.(type) {
	case int:
		return p.operateScalar(op, float64(v), indices)
	case float64:
		return p.operateScalar(op, v, indices)
	case *Slice:
		if v.single {
			rec := v.record()
			pairs := make([]*Extension, len(indices))
			for i := range pairs {
				pairs[i] = rec
			}
			return p.operatePairs(op, pairs, indices, v.p)
		}
		if v.Len() != len(indices) {
			return errf(ErrKindValueMismatch,
				"cannot %s: operand has %d extensions, target has %d", op, v.Len(), len(indices))
		}
		return p.operatePairs(op, v.Records(), indices, v.p)
	case *Provider:
		if err := v.materialize(); err != nil {
			return err
		}
		if v.Len() != len(indices) {
			return errf(ErrKindValueMismatch,
				"cannot %s: operand has %d extensions, target has %d", op, v.Len(), len(indices))
		}
		return p.operatePairs(op, v.exts, indices, v)
	default:
		return errf(ErrKindUnsupported, "cannot %s a value of type %T", op, operand)
	}
}

func (p *Provider) operateScalar(op arithOp, s float64, indices []int) error {
	for _, n := range indices {
		combineScalar(p.exts[n], s, op)
	}
	return nil
}

func (p *Provider) operatePairs(op arithOp, operands []*Extension, indices []int, src *Provider) error {
	for i, n := range indices {
		a, b := p.exts[n].data, operands[i].data
		if a == nil || b == nil || !a.SameShape(b) {
			return errf(ErrKindValueMismatch,
				"cannot %s: extension %d shapes disagree", op, n)
		}
	}
	for i, n := range indices {
		combine(p.exts[n], operands[i], op)
	}
	p.mergeTables(src)
	return nil
}

// mergeTables carries the operand's free tables over, keeping local tables
// on a name clash.
func (p *Provider) mergeTables(src *Provider) {
	if src == nil || src == p {
		return
	}
	for name, tbl := range src.tables {
		if tbl == nil {
			continue
		}
		if _, ok := p.tables[name]; ok {
			continue
		}
		p.tables[name] = tbl.Clone()
		p.exposed[name] = struct{}{}
	}
}

// combine folds operand into target elementwise, propagating mask and
// uncertainty. Shapes have been validated by the caller.
func combine(target, operand *Extension, op arithOp) {
	ta, oa := target.data, operand.data
	ts := target.uncertainty.StdDev()
	os := operand.uncertainty.StdDev()

	if ts != nil || os != nil {
		target.uncertainty = propagate(ta, oa, ts, os, op)
	}

	for i := range ta.Pix {
		ta.Pix[i] = apply(op, ta.Pix[i], oa.Pix[i])
	}

	if operand.mask != nil {
		if target.mask == nil {
			target.mask = operand.mask.Clone()
		} else {
			for i := range target.mask.Pix {
				m := uint32(target.mask.Pix[i]) | uint32(operand.mask.Pix[i])
				target.mask.Pix[i] = float64(m)
			}
		}
	}
}

// propagate computes the result stddev plane. Addition and subtraction sum
// the absolute uncertainties in quadrature; multiplication and division sum
// the relative ones. A missing operand plane counts as zero uncertainty.
// Reads the pre-operation pixel values, so it must run before they change.
func propagate(ta, oa, ts, os *fits.Image, op arithOp) *VarianceUncertainty {
	out := ta.Clone()
	at := func(img *fits.Image, i int) float64 {
		if img == nil {
			return 0
		}
		return img.Pix[i]
	}
	for i := range out.Pix {
		sa, sb := at(ts, i), at(os, i)
		switch op {
		case opAdd, opSub:
			out.Pix[i] = math.Hypot(sa, sb)
		default:
			a, b := ta.Pix[i], oa.Pix[i]
			r := apply(op, a, b)
			out.Pix[i] = math.Abs(r) * math.Hypot(safeDiv(sa, a), safeDiv(sb, b))
		}
	}
	return NewStdDevUncertainty(out)
}

func safeDiv(s, v float64) float64 {
	if v == 0 {
		if s == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return s / v
}

// combineScalar applies op with a uniform scalar. Mask is unchanged;
// uncertainty scales by |s| for multiplicative ops.
func combineScalar(target *Extension, s float64, op arithOp) {
	ta := target.data
	for i := range ta.Pix {
		ta.Pix[i] = apply(op, ta.Pix[i], s)
	}
	if op == opAdd || op == opSub {
		return
	}
	if sd := target.uncertainty.StdDev(); sd != nil {
		factor := math.Abs(s)
		if op == opDiv {
			factor = 1 / math.Abs(s)
		}
		for i := range sd.Pix {
			sd.Pix[i] *= factor
		}
	}
}

func apply(op arithOp, a, b float64) float64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	default:
		return a / b
	}
}
