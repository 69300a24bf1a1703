package bayes

// Draws holds retained posterior samples indexed [chain][draw].
type Draws struct {
	ModelName string
	Tau       [][]int
	MuBefore  [][]float64
	MuAfter   [][]float64
	Sigma     [][]float64

	Seed  uint64
	Tune  int
	Stats []ChainStats
}

// ChainStats reports the adapted proposal state of one chain.
type ChainStats struct {
	Chain         int
	TauAcceptRate float64
	TauRadius     int
	MuWidth       [2]float64
	LogSigmaWidth float64
}

// Variable is one named parameter with its per-chain draws.
type Variable struct {
	Name   string
	Param  string
	Values [][]float64
}

func newDraws(name string, chains, draws int) *Draws {
	d := &Draws{
		ModelName: name,
		Tau:       make([][]int, chains),
		MuBefore:  make([][]float64, chains),
		MuAfter:   make([][]float64, chains),
		Sigma:     make([][]float64, chains),
		Stats:     make([]ChainStats, chains),
	}
	for c := 0; c < chains; c++ {
		d.Tau[c] = make([]int, draws)
		d.MuBefore[c] = make([]float64, draws)
		d.MuAfter[c] = make([]float64, draws)
		d.Sigma[c] = make([]float64, draws)
	}
	return d
}

func (d *Draws) NumChains() int { return len(d.Tau) }

func (d *Draws) NumDraws() int {
	if len(d.Tau) == 0 {
		return 0
	}
	return len(d.Tau[0])
}

// QualifiedName prefixes param with the model name when the model is named.
func (d *Draws) QualifiedName(param string) string {
	if d.ModelName == "" {
		return param
	}
	return d.ModelName + "::" + param
}

// Variables lists the parameters that carry draws, tau converted to float.
func (d *Draws) Variables() []Variable {
	var out []Variable
	add := func(param string, v [][]float64) {
		if len(v) == 0 {
			return
		}
		out = append(out, Variable{Name: d.QualifiedName(param), Param: param, Values: v})
	}
	if len(d.Tau) > 0 {
		tau := make([][]float64, len(d.Tau))
		for c, chain := range d.Tau {
			tau[c] = make([]float64, len(chain))
			for i, t := range chain {
				tau[c][i] = float64(t)
			}
		}
		add(ParamTau, tau)
	}
	add(ParamMuBefore, d.MuBefore)
	add(ParamMuAfter, d.MuAfter)
	add(ParamSigma, d.Sigma)
	return out
}

// FlatTau concatenates the tau draws chain after chain.
func (d *Draws) FlatTau() []int {
	out := make([]int, 0, len(d.Tau)*d.NumDraws())
	for _, chain := range d.Tau {
		out = append(out, chain...)
	}
	return out
}

// Flatten concatenates per-chain draws chain after chain.
func Flatten(chains [][]float64) []float64 {
	n := 0
	for _, c := range chains {
		n += len(c)
	}
	out := make([]float64, 0, n)
	for _, c := range chains {
		out = append(out, c...)
	}
	return out
}
