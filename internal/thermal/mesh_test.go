package thermal

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/convection"
	"github.com/san-kum/reactorsim/internal/units"
)

func TestMesh_Errors(t *testing.T) {
	ti := testTimer(t)
	plain := component(t, ti, "plain", 600)
	_, err := plain.Mesh(0.1)
	assert.ErrorIs(t, err, ErrNoGeometry)

	sph, err := New(Params{Name: "sph", Material: solid(t, 10), T0: 600, Shell: &Shell{Ri: 0, Ro: 1}}, ti)
	require.NoError(t, err)

	_, err = sph.Mesh(2)
	assert.ErrorIs(t, err, ErrMeshThickness)
	_, err = sph.Mesh(0)
	assert.ErrorIs(t, err, ErrMeshThickness)
	_, err = sph.Mesh(-0.1)
	assert.ErrorIs(t, err, ErrMeshThickness)
}

func TestMesh_Shells(t *testing.T) {
	ti := testTimer(t)
	sph, err := New(Params{Name: "sph", Material: solid(t, 10), T0: 600, Shell: &Shell{Ri: 0, Ro: 1}}, ti)
	require.NoError(t, err)

	subs, err := sph.Mesh(0.2)
	require.NoError(t, err)
	require.Len(t, subs, 5)

	first, _ := subs[0].Shell()
	assert.InDelta(t, 0.2, float64(first.Ro-first.Ri), 1e-12)
	assert.Equal(t, "sph.0", subs[0].Name())
	assert.Equal(t, "sph.4", subs[4].Name())

	last, _ := subs[4].Shell()
	assert.Equal(t, units.Length(1), last.Ro)

	// an uneven split rounds the shell count up
	subs, err = sph.Mesh(0.3)
	require.NoError(t, err)
	assert.Len(t, subs, 4)
}

func TestMesh_Apportioning(t *testing.T) {
	ti := testTimer(t)
	alpha := units.FeedbackCoefficient(-3.8e-5)
	power := units.Power(5e6)
	fuel, err := New(Params{
		Name:     "fuel",
		Material: solid(t, 10),
		T0:       900,
		Feedback: &alpha,
		Power:    &power,
		Shell:    &Shell{Ri: 0.0125, Ro: 0.014, Count: 1000},
	}, ti)
	require.NoError(t, err)

	subs, err := fuel.Mesh(0.0003)
	require.NoError(t, err)

	var sumP units.Power
	var sumA units.FeedbackCoefficient
	var sumV units.Volume
	for _, s := range subs {
		p, ok := s.Power()
		require.True(t, ok)
		a, ok := s.FeedbackCoefficient()
		require.True(t, ok)
		sumP += p
		sumA += a
		sumV += s.Volume()
		assert.Equal(t, fuel.Material(), s.Material(), "material is shared")
	}
	assert.InDelta(t, float64(power), float64(sumP), 1e-6)
	assert.InDelta(t, float64(alpha), float64(sumA), 1e-15)
	assert.InDelta(t, float64(fuel.Volume()), float64(sumV), 1e-12*float64(fuel.Volume()))

	// outer shells hold more volume and take a larger share
	p0, _ := subs[0].Power()
	pn, _ := subs[len(subs)-1].Power()
	assert.Greater(t, float64(pn), float64(p0))
}

func TestMesh_TilesParent(t *testing.T) {
	ti := testTimer(t)
	mat := solid(t, 10)

	parameters := gopter.DefaultTestParametersWithSeed(1792020799278616173)
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)
	properties.Property("sub shells tile [ri, ro] and sum to the parent volume", prop.ForAll(
		func(ri, span float64, n int) bool {
			parent, err := New(Params{Name: "p", Material: mat, T0: 600, Shell: &Shell{Ri: units.Length(ri), Ro: units.Length(ri + span)}}, ti)
			if err != nil {
				return false
			}
			subs, err := parent.Mesh(units.Length(span / float64(n)))
			if err != nil || len(subs) != n {
				return false
			}

			sum := 0.0
			for i, s := range subs {
				sh, _ := s.Shell()
				sum += float64(s.Volume())
				if i+1 < len(subs) {
					next, _ := subs[i+1].Shell()
					if sh.Ro != next.Ri {
						return false
					}
				}
			}
			first, _ := subs[0].Shell()
			last, _ := subs[n-1].Shell()
			if first.Ri != units.Length(ri) || last.Ro != units.Length(ri+span) {
				return false
			}
			want := float64(parent.Volume())
			return math.Abs(sum-want) <= 1e-9*want
		},
		gen.Float64Range(0, 0.02),
		gen.Float64Range(1e-4, 0.02),
		gen.IntRange(1, 40),
	))
	properties.TestingRun(t)
}

func TestMesh_ThicknessEqualToRoundedSpan(t *testing.T) {
	ri, span := 0.00582696712345134, 0.00980042061640662
	parent, err := New(Params{Name: "p", Material: solid(t, 10), T0: 600, Shell: &Shell{Ri: units.Length(ri), Ro: units.Length(ri + span)}}, testTimer(t))
	require.NoError(t, err)
	sh, _ := parent.Shell()
	require.Less(t, float64(sh.Ro-sh.Ri), span, "ro-ri rounds below the requested span")

	subs, err := parent.Mesh(units.Length(span))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	got, _ := subs[0].Shell()
	assert.Equal(t, sh, got)

	_, err = parent.Mesh(units.Length(span * 1.001))
	assert.ErrorIs(t, err, ErrMeshThickness)
}

func TestSuperComponent_Wiring(t *testing.T) {
	ti := testTimer(t)
	peb, err := New(Params{Name: "pebble", Material: solid(t, 10), T0: 900, Shell: &Shell{Ri: 0, Ro: 0.015}}, ti)
	require.NoError(t, err)
	subs, err := peb.Mesh(0.005)
	require.NoError(t, err)
	require.Len(t, subs, 3)

	sc, err := NewSuperComponent("pebble.core", subs)
	require.NoError(t, err)
	assert.Equal(t, subs[2], sc.Surface())
	assert.Equal(t, subs[0], sc.Inner())

	require.Len(t, subs[0].conduction, 1)
	require.Len(t, subs[1].conduction, 2)
	require.Len(t, subs[2].conduction, 1)

	e := subs[0].conduction[0]
	assert.Equal(t, subs[1], e.to)
	assert.InDelta(t, float64(units.SphereArea(0.005)), float64(e.area), 1e-15)
	assert.InDelta(t, 0.005, float64(e.length), 1e-15)
	assert.True(t, subs[1].conductsTo(subs[0]))
}

func TestSuperComponent_Errors(t *testing.T) {
	ti := testTimer(t)
	_, err := NewSuperComponent("empty", nil)
	assert.ErrorIs(t, err, ErrInvalidComponent)

	_, err = NewSuperComponent("flat", []*Component{component(t, ti, "flat", 600)})
	assert.ErrorIs(t, err, ErrNoGeometry)

	a, err := New(Params{Name: "a", Material: solid(t, 10), T0: 600, Shell: &Shell{Ri: 0, Ro: 0.01}}, ti)
	require.NoError(t, err)
	b, err := New(Params{Name: "b", Material: solid(t, 10), T0: 600, Shell: &Shell{Ri: 0.011, Ro: 0.02}}, ti)
	require.NoError(t, err)
	_, err = NewSuperComponent("gap", []*Component{a, b})
	assert.ErrorIs(t, err, ErrNotContiguous)
}

func TestSuperComponent_Boundary(t *testing.T) {
	ti := testTimer(t)
	peb, err := New(Params{Name: "pebble", Material: solid(t, 10), T0: 900, Shell: &Shell{Ri: 0, Ro: 0.015}}, ti)
	require.NoError(t, err)
	subs, err := peb.Mesh(0.005)
	require.NoError(t, err)
	sc, err := NewSuperComponent("pebble", subs)
	require.NoError(t, err)

	cool := component(t, ti, "cool", 800)
	h := convection.NewConstant(4700)
	require.NoError(t, sc.AddBoundaryConvection(cool, h, nil))
	assert.ErrorIs(t, sc.AddBoundaryConvection(cool, h, nil), ErrBoundaryDefined)

	outer := sc.Surface()
	q, err := outer.Rate(Eval{View: mapView{
		subs[0]: 900, subs[1]: 900, subs[2]: 900, cool: 800,
	}})
	require.NoError(t, err)

	area := float64(units.SphereArea(0.015))
	depth := 0.0025
	want := area * (800 - 900) / (1/4700.0 + depth/10)
	assert.InDelta(t, want, float64(q), 1e-9*math.Abs(want))

	// the film alone bounds the flow from above
	assert.Less(t, math.Abs(float64(q)), 4700*area*100)

	k := units.Conductivity(1e9)
	other, err := New(Params{Name: "other", Material: solid(t, 10), T0: 900, Shell: &Shell{Ri: 0, Ro: 0.015}}, ti)
	require.NoError(t, err)
	osc, err := NewSuperComponent("other", []*Component{other})
	require.NoError(t, err)
	require.NoError(t, osc.AddBoundaryConvection(cool, h, &k))
	q, err = other.Rate(Eval{View: mapView{other: 900, cool: 800}})
	require.NoError(t, err)
	assert.InDelta(t, 4700*area*(-100), float64(q), 1e-6*4700*area*100)
}
