package thermal

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/convection"
	"github.com/san-kum/reactorsim/internal/material"
	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/timer"
	"github.com/san-kum/reactorsim/internal/units"
)

func testTimer(t *testing.T) *timer.Timer {
	t.Helper()
	ti, err := timer.New(0, 10, 0.1, 5)
	require.NoError(t, err)
	return ti
}

func solid(t *testing.T, k units.Conductivity) *material.Material {
	t.Helper()
	m, err := material.New("solid", props.ConstantConductivity(k), 1000, props.ConstantDensity(2000))
	require.NoError(t, err)
	return m
}

func component(t *testing.T, ti *timer.Timer, name string, t0 units.Temperature) *Component {
	t.Helper()
	c, err := New(Params{Name: name, Material: solid(t, 10), Volume: 0.5, T0: t0}, ti)
	require.NoError(t, err)
	return c
}

// mapView serves fixed temperatures for rate evaluations.
type mapView map[*Component]units.Temperature

func (v mapView) TemperatureOf(c *Component) (units.Temperature, error) {
	t, ok := v[c]
	if !ok {
		return 0, ErrNotRecorded
	}
	return t, nil
}

func TestNew_Errors(t *testing.T) {
	ti := testTimer(t)
	mat := solid(t, 10)

	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"empty name", Params{Material: mat}, ErrInvalidComponent},
		{"no material", Params{Name: "a"}, ErrInvalidComponent},
		{"negative volume", Params{Name: "a", Material: mat, Volume: -1}, ErrNegativeVolume},
		{"inverted shell", Params{Name: "a", Material: mat, Shell: &Shell{Ri: 0.02, Ro: 0.01}}, ErrShellGeometry},
		{"negative ri", Params{Name: "a", Material: mat, Shell: &Shell{Ri: -0.01, Ro: 0.01}}, ErrShellGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p, ti)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_ShellVolume(t *testing.T) {
	c, err := New(Params{
		Name:     "fuel",
		Material: solid(t, 10),
		T0:       900,
		Shell:    &Shell{Ri: 0.01, Ro: 0.014, Count: 100},
	}, testTimer(t))
	require.NoError(t, err)

	want := 100 * units.ShellVolume(0.01, 0.014)
	assert.InDelta(t, float64(want), float64(c.Volume()), 1e-18)
}

func TestHistory(t *testing.T) {
	c := component(t, testTimer(t), "a", 700)

	got, err := c.Temperature(0)
	require.NoError(t, err)
	assert.Equal(t, units.Temperature(700), got)

	_, err = c.Temperature(1)
	assert.ErrorIs(t, err, ErrNotRecorded)

	require.NoError(t, c.RecordTemperature(1, 710))
	err = c.RecordTemperature(1, 720)
	assert.ErrorIs(t, err, ErrAlreadyRecorded)

	got, err = c.Temperature(1)
	require.NoError(t, err)
	assert.Equal(t, units.Temperature(710), got, "second write must not overwrite")

	assert.ErrorIs(t, c.RecordTemperature(0, 1), ErrAlreadyRecorded)
	assert.ErrorIs(t, c.RecordTemperature(1000, 1), ErrIndexRange)
	_, err = c.Temperature(-1)
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestDeltaTemperature(t *testing.T) {
	ti := testTimer(t)
	c := component(t, ti, "a", 700)
	ref := ti.FeedbackIndex()

	for i := 1; i <= ref+2; i++ {
		require.NoError(t, c.RecordTemperature(i, units.Temperature(700+i)))
	}

	d, err := c.DeltaTemperature(ref - 1)
	require.NoError(t, err)
	assert.Zero(t, d, "no feedback before the reference index")

	d, err = c.DeltaTemperature(ref + 2)
	require.NoError(t, err)
	assert.Equal(t, units.Temperature(2), d)
}

func TestFeedback(t *testing.T) {
	ti := testTimer(t)
	alpha := units.FeedbackCoefficient(-3.19 * float64(units.PCM))
	c, err := New(Params{Name: "fuel", Material: solid(t, 10), Volume: 1, T0: 900, Feedback: &alpha}, ti)
	require.NoError(t, err)

	rho, err := c.Feedback(910, 0)
	require.NoError(t, err)
	assert.Zero(t, rho)

	for i := 1; i <= ti.FeedbackIndex(); i++ {
		require.NoError(t, c.RecordTemperature(i, 905))
	}
	rho, err = c.Feedback(915, ti.FeedbackIndex())
	require.NoError(t, err)
	assert.InDelta(t, -31.9, rho.PCM(), 1e-9)

	plain := component(t, ti, "reflector", 900)
	rho, err = plain.Feedback(2000, ti.FeedbackIndex())
	require.NoError(t, err)
	assert.Zero(t, rho)
}

func TestRate_Edges(t *testing.T) {
	ti := testTimer(t)
	a := component(t, ti, "a", 600)
	b := component(t, ti, "b", 700)

	require.NoError(t, a.AddConduction(b, 2, 0.5))
	q, err := a.NetEnergyRate(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10*2/0.5*100, float64(q), 1e-9)

	c := component(t, ti, "c", 600)
	require.NoError(t, c.AddConvection(b, convection.NewConstant(50), 3, RefSelf))
	q, err = c.NetEnergyRate(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 50*3*100, float64(q), 1e-9)

	d := component(t, ti, "d", 600)
	require.NoError(t, d.AddInletAdvection(650, 2, 1000))
	require.NoError(t, d.AddAdvection(b, 1, 1000))
	q, err = d.NetEnergyRate(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2*1000*50+1*1000*100, float64(q), 1e-9)
}

func TestRate_HeatGeneration(t *testing.T) {
	ti := testTimer(t)
	p := units.Power(1e6)
	c, err := New(Params{Name: "fuel", Material: solid(t, 10), Volume: 1, T0: 900, Power: &p}, ti)
	require.NoError(t, err)

	q, err := c.NetEnergyRate(0, 1)
	require.NoError(t, err)
	assert.Equal(t, p, q)

	q, err = c.NetEnergyRate(0, 0.25)
	require.NoError(t, err)
	assert.Equal(t, units.Power(2.5e5), q)

	dT, err := c.DTempDt(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1e6/(2000*1*1000), dT, 1e-12)
}

func TestDerivative_ZeroVolume(t *testing.T) {
	ti := testTimer(t)
	c, err := New(Params{Name: "void", Material: solid(t, 10), T0: 600}, ti)
	require.NoError(t, err)

	_, err = c.NetEnergyRate(0, 1)
	assert.NoError(t, err)

	_, err = c.DTempDt(0, 1)
	assert.ErrorIs(t, err, ErrZeroVolume)
}

func TestAddEdge_Errors(t *testing.T) {
	ti := testTimer(t)
	a := component(t, ti, "a", 600)
	b := component(t, ti, "b", 600)

	assert.ErrorIs(t, a.AddConduction(a, 1, 1), ErrInvalidEdge)
	assert.ErrorIs(t, a.AddConduction(b, 0, 1), ErrInvalidEdge)
	assert.ErrorIs(t, a.AddConduction(b, 1, 0), ErrInvalidEdge)
	assert.ErrorIs(t, a.AddConvection(b, nil, 1, RefSelf), ErrInvalidEdge)
	assert.ErrorIs(t, a.AddAdvection(b, 1, 0), ErrInvalidEdge)
	assert.ErrorIs(t, a.AddInletAdvection(600, -1, 1000), ErrInvalidEdge)
	assert.ErrorIs(t, a.AddConduction(nil, 1, 1), ErrInvalidEdge)
}

func TestRate_LinearInTemperatureDifference(t *testing.T) {
	ti := testTimer(t)
	self := component(t, ti, "self", 600)
	other := component(t, ti, "other", 600)
	require.NoError(t, self.AddConduction(other, 0.3, 0.02))
	require.NoError(t, self.AddConvection(other, convection.NewConstant(4700), 1.5, RefNeighbor))

	rate := func(ts, dT float64) float64 {
		q, err := self.Rate(Eval{View: mapView{self: units.Temperature(ts), other: units.Temperature(ts + dT)}, RelPower: 1})
		require.NoError(t, err)
		return float64(q)
	}

	properties := gopter.NewProperties(nil)
	properties.Property("doubling the difference doubles the rate", prop.ForAll(
		func(ts, dT float64) bool {
			q1 := rate(ts, dT)
			q2 := rate(ts, 2*dT)
			return math.Abs(q2-2*q1) <= 1e-6+1e-9*math.Abs(q2)
		},
		gen.Float64Range(300, 1200),
		gen.Float64Range(-200, 200),
	))
	properties.TestingRun(t)
}
