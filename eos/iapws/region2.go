package iapws

import "math"

// Region 2 covers superheated vapour up to 1073.15 K, bounded below by the
// saturation line and above by the B23 line.
const (
	r2PStar = 1e6
	r2TStar = 540.0
)

var region2Ideal = [...]struct {
	j int
	n float64
}{
	{0, -0.96927686500217e1},
	{1, 0.10086655968018e2},
	{-5, -0.56087911283020e-2},
	{-4, 0.71452738081455e-1},
	{-3, -0.40710498223928},
	{-2, 0.14240819171444e1},
	{-1, -0.43839511319450e1},
	{2, -0.28408632460772},
	{3, 0.21268463753307e-1},
}

var region2Residual = [...]struct {
	i, j int
	n    float64
}{
	{1, 0, -0.17731742473213e-2},
	{1, 1, -0.17834862292358e-1},
	{1, 2, -0.45996013696365e-1},
	{1, 3, -0.57581259083432e-1},
	{1, 6, -0.50325278727930e-1},
	{2, 1, -0.33032641670203e-4},
	{2, 2, -0.18948987516315e-3},
	{2, 4, -0.39392777243355e-2},
	{2, 7, -0.43797295650573e-1},
	{2, 36, -0.26674547914087e-4},
	{3, 0, 0.20481737692309e-7},
	{3, 1, 0.43870667284435e-6},
	{3, 3, -0.32277677238570e-4},
	{3, 6, -0.15033924542148e-2},
	{3, 35, -0.40668253562649e-1},
	{4, 1, -0.78847309559367e-9},
	{4, 2, 0.12790717852285e-7},
	{4, 3, 0.48225372718507e-6},
	{5, 7, 0.22922076337661e-5},
	{6, 3, -0.16714766451061e-10},
	{6, 16, -0.21171472321355e-2},
	{6, 35, -0.23895741934104e2},
	{7, 0, -0.59059564324270e-17},
	{7, 11, -0.12621808899101e-5},
	{7, 25, -0.38946842435739e-1},
	{8, 8, 0.11256211360459e-10},
	{8, 36, -0.82311340897998e1},
	{9, 13, 0.19809712802088e-7},
	{10, 4, 0.10406965210174e-18},
	{10, 10, -0.10234747095929e-12},
	{10, 14, -0.10018179379511e-9},
	{16, 29, -0.80882908646985e-10},
	{16, 50, 0.10693031879409},
	{18, 57, -0.33662250574171},
	{20, 20, 0.89185845355421e-24},
	{20, 35, 0.30629316876232e-12},
	{20, 48, -0.42002467698208e-5},
	{21, 21, -0.59056029685639e-25},
	{22, 53, 0.37826947613457e-5},
	{23, 39, -0.12768608934681e-14},
	{24, 26, 0.73087610595061e-28},
	{24, 40, 0.55414715350778e-16},
	{24, 58, -0.94369707241210e-6},
}

// region2 evaluates the ideal-gas and residual parts of the region 2 Gibbs
// free energy at temperature t (K) and pressure p (Pa).
func region2(t, p float64) properties {
	pi := p / r2PStar
	tau := r2TStar / t

	g0 := math.Log(pi)
	g0p := 1 / pi
	var g0t, g0tt float64
	for _, term := range region2Ideal {
		j, n := float64(term.j), term.n
		g0 += n * ipow(tau, term.j)
		g0t += n * j * ipow(tau, term.j-1)
		g0tt += n * j * (j - 1) * ipow(tau, term.j-2)
	}

	b := tau - 0.5
	var gr, grp, grpp, grt, grtt, grpt float64
	for _, term := range region2Residual {
		i, j, n := float64(term.i), float64(term.j), term.n
		pii := ipow(pi, term.i)
		bj := ipow(b, term.j)
		gr += n * pii * bj
		grp += n * i * ipow(pi, term.i-1) * bj
		grpp += n * i * (i - 1) * ipow(pi, term.i-2) * bj
		grt += n * pii * j * ipow(b, term.j-1)
		grtt += n * pii * j * (j - 1) * ipow(b, term.j-2)
		grpt += n * i * ipow(pi, term.i-1) * j * ipow(b, term.j-1)
	}

	rt := R * t
	gp := g0p + grp
	gt := g0t + grt
	num := 1 + pi*grp - tau*pi*grpt
	return properties{
		t:  t,
		p:  p,
		v:  rt / p * pi * gp,
		u:  rt * (tau*gt - pi*gp),
		h:  rt * tau * gt,
		s:  R * (tau*gt - (g0 + gr)),
		cp: -R * tau * tau * (g0tt + grtt),
		cv: R * (-tau*tau*(g0tt+grtt) - num*num/(1-pi*pi*grpp)),
	}
}
