package models

import (
	"math"

	"github.com/Teslos/pycalphad/symexpr"
	"github.com/Teslos/pycalphad/types"
)

// IHJMagneticModel is the Inden-Hillert-Jarl magnetic contribution:
// R*T*ln(beta+1)*g(tau) with tau = T/Tc, where the composition
// dependent Curie temperature Tc and mean magnetic moment beta come
// from "TC" and "BMAGN" parameters. Negative Tc and beta are divided
// by the phase's antiferromagnetic factor; the polynomial g(tau) uses
// the structure's short-range-order fraction.
type IHJMagneticModel struct {
	baseModel
}

func NewIHJMagneticModel(phase types.Phase, sublset *types.SublatticeSet, pset *ParameterSet) *IHJMagneticModel {
	ast := symexpr.Expr(symexpr.Num(0))
	if phase.MagneticAFMFactor != 0 && phase.MagneticSROFraction > 0 {
		tc := weightedMagneticTree(phase.Name, "TC", sublset, pset)
		beta := weightedMagneticTree(phase.Name, "BMAGN", sublset, pset)
		if !symexpr.IsZeroTree(tc) {
			ast = buildIHJTree(tc, beta, phase.MagneticAFMFactor, phase.MagneticSROFraction)
			ast = normalize(ast, phase.Name, sublset)
		}
	}
	return &IHJMagneticModel{baseModel{
		phase:   phase.Name,
		ast:     ast,
		symbols: pset.Symbols,
	}}
}

func (m *IHJMagneticModel) CloneWithRenamedPhase(old, new string) EnergyModel {
	return &IHJMagneticModel{m.cloneRenamed(old, new)}
}

// weightedMagneticTree builds the composition dependence of Tc or
// beta: end-member weighted values plus Redlich-Kister interaction
// terms of the same parameter type.
func weightedMagneticTree(phase, ptype string, sublset *types.SublatticeSet, pset *ParameterSet) symexpr.Expr {
	em := endmemberTree(phase, ptype, sublset, pset)
	ex := interactionTree(phase, ptype, sublset, pset)
	if symexpr.IsZeroTree(ex) {
		return em
	}
	return symexpr.Add(em, ex)
}

// buildIHJTree assembles R*T*ln(betaEff+1)*g(tau). The
// antiferromagnetic transform is expressed as a piecewise on the sign
// of the raw Tc/beta trees; g(tau) is the IHJ polynomial split at
// tau = 1. Compositions with no critical temperature contribute zero.
func buildIHJTree(tc, beta symexpr.Expr, afmFactor, sroFraction float64) symexpr.Expr {
	var (
		negInf = math.Inf(-1)
		posInf = math.Inf(1)
		p      = sroFraction
		// Normalization constant A of the IHJ polynomial.
		aConst = 518./1125. + (11692./15975.)*(1./p-1.)
	)
	signFix := func(e symexpr.Expr) symexpr.Expr {
		return &symexpr.Piecewise{
			Selector: e,
			Ranges: []symexpr.Range{
				{Lo: negInf, Hi: 0, Body: symexpr.Div(e, symexpr.Num(afmFactor))},
				{Lo: 0, Hi: posInf, Body: e},
			},
		}
	}
	tcEff := signFix(tc)
	betaEff := signFix(beta)
	tau := symexpr.Div(symexpr.Var("T"), tcEff)

	powTerm := func(exp float64, div float64) symexpr.Expr {
		return symexpr.Div(symexpr.Pow(tau, symexpr.Num(exp)), symexpr.Num(div))
	}
	// g(tau) below the critical temperature.
	gLow := symexpr.Sub(symexpr.Num(1),
		symexpr.Div(
			symexpr.Add(
				symexpr.Div(symexpr.Mul(symexpr.Num(79), symexpr.Pow(tau, symexpr.Num(-1))), symexpr.Num(140*p)),
				symexpr.Mul(symexpr.Num((474./497.)*(1./p-1.)),
					symexpr.Add(powTerm(3, 6), symexpr.Add(powTerm(9, 135), powTerm(15, 600))))),
			symexpr.Num(aConst)))
	// g(tau) above the critical temperature.
	gHigh := symexpr.Neg(
		symexpr.Div(
			symexpr.Add(powTerm(-5, 10), symexpr.Add(powTerm(-15, 315), powTerm(-25, 1500))),
			symexpr.Num(aConst)))
	g := &symexpr.Piecewise{
		Selector: tau,
		Ranges: []symexpr.Range{
			{Lo: 0, Hi: 1, Body: gLow},
			{Lo: 1, Hi: posInf, Body: gHigh},
		},
	}
	full := symexpr.Mul(symexpr.Num(types.SIGasConstant),
		symexpr.Mul(symexpr.Var("T"),
			symexpr.Mul(symexpr.Log(symexpr.Add(betaEff, symexpr.Num(1))), g)))
	// Guard against compositions where Tc vanishes: tau would divide
	// by zero there, and the magnetic term is zero anyway.
	return &symexpr.Piecewise{
		Selector: tcEff,
		Ranges: []symexpr.Range{
			{Lo: 1.e-6, Hi: posInf, Body: full},
		},
	}
}
