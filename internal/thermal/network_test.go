package thermal_test

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/reactorsim/internal/convection"
	"github.com/san-kum/reactorsim/internal/material"
	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/thermal"
	"github.com/san-kum/reactorsim/internal/timer"
	"github.com/san-kum/reactorsim/internal/units"
)

var _ = Describe("Network", func() {
	var (
		ti   *timer.Timer
		mat  *material.Material
		hook *test.Hook
		log  *logrus.Entry
		net  *thermal.Network
	)

	newComponent := func(name string, t0 units.Temperature) *thermal.Component {
		c, err := thermal.New(thermal.Params{Name: name, Material: mat, Volume: 0.1, T0: t0}, ti)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	BeforeEach(func() {
		var err error
		ti, err = timer.New(0, 10, 0.1, 0)
		Expect(err).NotTo(HaveOccurred())
		mat, err = material.New("graphite", props.ConstantConductivity(26), 1650, props.ConstantDensity(1740))
		Expect(err).NotTo(HaveOccurred())

		logger := logrus.New()
		logger.SetOutput(io.Discard)
		hook = test.NewLocal(logger)
		log = logrus.NewEntry(logger)
		net = thermal.NewNetwork(log)
	})

	Describe("adding components", func() {
		It("keeps insertion order and rejects duplicate names", func() {
			a, b := newComponent("a", 600), newComponent("b", 700)
			Expect(net.Add(a, b)).To(Succeed())
			Expect(net.Names()).To(Equal([]string{"a", "b"}))

			idx, ok := net.Index(b)
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(1))

			Expect(net.Add(newComponent("a", 600))).To(MatchError(thermal.ErrDuplicateName))
		})

		It("refuses a component owned by another network", func() {
			a := newComponent("a", 600)
			Expect(net.Add(a)).To(Succeed())
			other := thermal.NewNetwork(log)
			Expect(other.Add(a)).To(MatchError(thermal.ErrOtherNetwork))
		})
	})

	Describe("validation", func() {
		It("warns on one-directional edges without failing", func() {
			a, b := newComponent("a", 600), newComponent("b", 700)
			Expect(a.AddConduction(b, 1, 0.1)).To(Succeed())
			Expect(b.AddConduction(a, 1, 0.1)).To(Succeed())
			Expect(a.AddConvection(b, convection.NewConstant(100), 1, thermal.RefSelf)).To(Succeed())
			Expect(net.Add(a, b)).To(Succeed())

			warnings, err := net.Validate()
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf(thermal.Warning{From: "a", To: "b", Kind: "convection"}))
			Expect(hook.LastEntry()).NotTo(BeNil())
			Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
			Expect(hook.LastEntry().Data).To(HaveKeyWithValue("component", "a"))
		})

		It("fails on a neighbor outside the network", func() {
			a, stray := newComponent("a", 600), newComponent("stray", 700)
			Expect(a.AddConduction(stray, 1, 0.1)).To(Succeed())
			Expect(net.Add(a)).To(Succeed())

			_, err := net.Validate()
			Expect(err).To(MatchError(thermal.ErrDanglingNeighbor))
		})
	})

	Describe("super components", func() {
		It("resolves the alias to the outer shell", func() {
			peb, err := thermal.New(thermal.Params{
				Name: "pebble", Material: mat, T0: 900,
				Shell: &thermal.Shell{Ri: 0, Ro: 0.015, Count: 10},
			}, ti)
			Expect(err).NotTo(HaveOccurred())
			subs, err := peb.Mesh(0.005)
			Expect(err).NotTo(HaveOccurred())
			sc, err := thermal.NewSuperComponent("pebble", subs)
			Expect(err).NotTo(HaveOccurred())

			cool := newComponent("cool", 800)
			h := convection.NewConstant(4700)
			Expect(sc.AddBoundaryConvection(cool, h, nil)).To(Succeed())
			Expect(net.Add(cool)).To(Succeed())
			Expect(net.AddSuper(sc)).To(Succeed())

			node, err := net.Lookup("pebble")
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Surface()).To(BeIdenticalTo(subs[2]))
			Expect(cool.AddConvection(node, h, units.SphereArea(0.015)*10, thermal.RefSelf)).To(Succeed())

			warnings, err := net.Validate()
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(BeEmpty())
			Expect(net.Len()).To(Equal(4))

			_, err = net.Lookup("missing")
			Expect(err).To(MatchError(thermal.ErrUnknownComponent))
		})
	})

	Describe("trial evaluation", func() {
		var a, b *thermal.Component

		BeforeEach(func() {
			a, b = newComponent("a", 600), newComponent("b", 700)
			Expect(a.AddConduction(b, 0.01, 0.05)).To(Succeed())
			Expect(b.AddConduction(a, 0.01, 0.05)).To(Succeed())
			Expect(net.Add(a, b)).To(Succeed())
		})

		It("derives trial states without touching history", func() {
			dx := make([]float64, 2)
			Expect(net.Derive([]float64{650, 660}, 1, false, dx)).To(Succeed())
			first := append([]float64(nil), dx...)
			Expect(net.Derive([]float64{650, 660}, 1, false, dx)).To(Succeed())
			Expect(dx).To(Equal(first))

			_, err := a.Temperature(1)
			Expect(err).To(MatchError(thermal.ErrNotRecorded))
			t0, err := a.Temperature(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(t0).To(Equal(units.Temperature(600)))
		})

		It("conserves energy between the two nodes", func() {
			temps := []float64{600, 700}
			dx := make([]float64, 2)
			Expect(net.Derive(temps, 1, false, dx)).To(Succeed())

			mass := 1740.0 * 0.1 * 1650
			Expect(dx[0]).To(BeNumerically(">", 0))
			Expect(mass*dx[0] + mass*dx[1]).To(BeNumerically("~", 0, 1e-9))

			e, err := net.ThermalEnergy(temps)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeNumerically("~", mass*1300, 1e-6))
		})

		It("records a full segment once", func() {
			Expect(net.Record(1, []float64{601, 699})).To(Succeed())
			Expect(net.Record(1, []float64{602, 698})).To(MatchError(thermal.ErrAlreadyRecorded))
			got, err := net.Temperatures(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]float64{601, 699}))

			Expect(net.Record(2, []float64{1})).To(MatchError(thermal.ErrSegmentLength))
		})
	})
})
