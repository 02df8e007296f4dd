package convection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/material"
	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/units"
)

func pbfhrFlow() Flow {
	rShell := 0.015
	return Flow{
		MassFlow:    976.0,
		Area:        units.Area(0.4 * math.Pi * (1.05*1.05 - 0.35*0.35)),
		LengthScale: units.Length(2 * rShell),
	}
}

func temp(v float64) *units.Temperature {
	t := units.Temperature(v)
	return &t
}

func TestConstant(t *testing.T) {
	m := NewConstant(4700)
	for _, T := range []units.Temperature{0, 600, 1200} {
		h, err := m.H(T, false)
		require.NoError(t, err)
		assert.Equal(t, units.HeatTransferCoefficient(4700), h)
	}
}

func TestNewCorrelation_Errors(t *testing.T) {
	flibe := material.FLiBe()
	graphite := material.Graphite()

	_, err := NewCorrelation("wakao", flibe, pbfhrFlow(), nil)
	assert.ErrorIs(t, err, ErrNoBootstrap)

	_, err = NewCorrelation("dittus_boelter", flibe, pbfhrFlow(), temp(923.15))
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Contains(t, err.Error(), "wakao")

	_, err = NewCorrelation("wakao", graphite, pbfhrFlow(), temp(923.15))
	assert.ErrorIs(t, err, ErrNotLiquid)

	bad := pbfhrFlow()
	bad.LengthScale = 0
	_, err = NewCorrelation("wakao", flibe, bad, temp(923.15))
	assert.ErrorIs(t, err, ErrFlowGeometry)
}

func TestWakao_Formula(t *testing.T) {
	flibe := material.FLiBe()
	flow := pbfhrFlow()
	m, err := NewCorrelation("wakao", flibe, flow, temp(923.15))
	require.NoError(t, err)

	T := units.Temperature(900)
	rho, _ := flibe.Density(T)
	mu, _ := flibe.Viscosity(T)
	k, _ := flibe.Conductivity(T)
	L := float64(flow.LengthScale)
	u := float64(flow.MassFlow) / float64(flow.Area) / float64(rho)
	re := float64(rho) * L * u / float64(mu)
	pr := 2415.78 * float64(mu) / float64(k)
	want := (2 + 1.1*math.Pow(pr, 1.0/3.0)*math.Pow(re, 0.6)) * float64(k) / L

	h, err := m.H(T, false)
	require.NoError(t, err)
	assert.InDelta(t, want, float64(h), 1e-9*want)

	gotRe, gotPr, gotNu, err := m.Dimensionless(T)
	require.NoError(t, err)
	assert.InDelta(t, re, gotRe, 1e-9*re)
	assert.InDelta(t, pr, gotPr, 1e-9*pr)
	assert.InDelta(t, want*L/float64(k), gotNu, 1e-9*gotNu)
}

func TestWakao_Bootstrap(t *testing.T) {
	m, err := NewCorrelation("wakao", material.FLiBe(), pbfhrFlow(), temp(923.15))
	require.NoError(t, err)

	atBootstrap, err := m.H(923.15, false)
	require.NoError(t, err)

	viaFlag, err := m.H(1, true)
	require.NoError(t, err)
	assert.Equal(t, atBootstrap, viaFlag)

	hot, err := m.H(1000, false)
	require.NoError(t, err)
	assert.NotEqual(t, atBootstrap, hot)
}

func TestWakao_MonotonicInConductivity(t *testing.T) {
	fluid := func(k float64) *material.Material {
		m, err := material.NewLiquid("fluid",
			props.ConstantConductivity(units.Conductivity(k)),
			2400,
			props.ConstantDensity(1950),
			props.ConstantViscosity(0.008))
		require.NoError(t, err)
		return m
	}

	prev := 0.0
	for _, k := range []float64{0.5, 1.0, 2.0, 4.0} {
		m, err := NewCorrelation("wakao", fluid(k), pbfhrFlow(), temp(900))
		require.NoError(t, err)
		h, err := m.H(900, false)
		require.NoError(t, err)
		assert.Greater(t, float64(h), prev, "k=%g", k)
		prev = float64(h)
	}
}

func TestWakao_ZeroDivision(t *testing.T) {
	flow := pbfhrFlow()
	flow.Area = 0
	m, err := NewCorrelation("wakao", material.FLiBe(), flow, temp(900))
	require.NoError(t, err)

	_, err = m.H(900, false)
	assert.ErrorIs(t, err, ErrZeroDivision)

	zeroRho, err := material.NewLiquid("void",
		props.ConstantConductivity(1), 1000, props.ConstantDensity(0), props.ConstantViscosity(1e-3))
	require.NoError(t, err)
	m, err = NewCorrelation("wakao", zeroRho, pbfhrFlow(), temp(900))
	require.NoError(t, err)
	_, err = m.H(900, false)
	assert.ErrorIs(t, err, ErrZeroDivision)
}
