package setup_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
	"github.com/san-kum/orbsim/internal/frames"
	"github.com/san-kum/orbsim/internal/gravity"
	"github.com/san-kum/orbsim/internal/setup"
)

const (
	muSun     = 1.32712440018e20
	muJupiter = 1.26686534e17
	muMars    = 4.282837e13
	muEarth   = 3.986004418e14
	rEarth    = 6378137.0
)

func updateAndGet(m forces.AccelerationModel) r3.Vec {
	acc, err := forces.UpdateAndGet(m, 0)
	Expect(err).NotTo(HaveOccurred())
	return acc
}

func earthField() *gravity.SphericalHarmonicsField {
	cosine := [][]float64{
		{1.0},
		{0.0, 0.0},
		{-4.841651437908150e-4, -2.066155090741760e-10, 2.439383573283130e-6},
		{9.571612070934730e-7, 2.030462010478640e-6, 9.047878948095281e-7, 7.213217571215680e-7},
		{5.399658666389910e-7, -5.361573893888670e-7, 3.505016239626490e-7, 9.908567666723210e-7, -1.885196330230330e-7},
		{6.867029137366810e-8, -6.292119230425290e-8, 6.520780431761640e-7, -4.518471523288430e-7, -2.953287611756290e-7, 1.748117954960020e-7},
	}
	sine := [][]float64{
		{0.0},
		{0.0, 0.0},
		{0.0, 1.384413891379790e-9, -1.400273703859340e-6},
		{0.0, 2.482004158568720e-7, -6.190054751776180e-7, 1.414349261929410e-6},
		{0.0, -4.735673465180860e-7, 6.624800262758290e-7, -2.009567235674520e-7, 3.088038821491940e-7},
		{0.0, -9.436980733957690e-8, -3.233531925405220e-7, -2.149554083060460e-7, 4.980705501023510e-8, -6.693799351801650e-7},
	}
	f, err := gravity.NewSphericalHarmonicsField(muEarth, rEarth, cosine, sine)
	Expect(err).NotTo(HaveOccurred())
	return f
}

var _ = Describe("Builder", func() {
	var reg *bodies.Registry

	Describe("central gravity", func() {
		var mars, jupiter, sun bodies.Handle
		var selected setup.SelectedAccelerationMap

		BeforeEach(func() {
			reg = bodies.NewRegistry()
			mars = reg.MustAdd(&bodies.Body{Name: "Mars", Gravity: gravity.PointMassField{Mu: muMars}})
			jupiter = reg.MustAdd(&bodies.Body{Name: "Jupiter", Gravity: gravity.PointMassField{Mu: muJupiter}})
			sun = reg.MustAdd(&bodies.Body{Name: "Sun", Gravity: gravity.PointMassField{Mu: muSun}})
			Expect(reg.SetState(mars, dynamo.State{2.08e11, -2.0e9, -5.1e9, 1.2e3, 2.6e4, 1.2e4})).To(Succeed())
			Expect(reg.SetState(jupiter, dynamo.State{5.98e11, 4.39e11, 1.73e11, -8.4e3, 1.0e4, 4.5e3})).To(Succeed())
			Expect(reg.SetState(sun, dynamo.State{1.0e8, -3.0e8, 2.0e7, 0, 0, 0})).To(Succeed())

			selected = setup.SelectedAccelerationMap{}
			selected.Add("Mars", "Sun", setup.CentralGravity())
			selected.Add("Mars", "Jupiter", setup.CentralGravity())
		})

		It("builds direct models about the inertial origin", func() {
			accs, err := setup.NewBuilder(reg).Build(selected, setup.CentralBodyMap{"Mars": "SSB"})
			Expect(err).NotTo(HaveOccurred())
			Expect(accs.Exerting("Mars")).To(Equal([]string{"Jupiter", "Sun"}))

			manualSun := gravity.NewCentralGravity(reg.PositionFunc(mars), muSun, reg.PositionFunc(sun))
			manualJupiter := gravity.NewCentralGravity(reg.PositionFunc(mars), muJupiter, reg.PositionFunc(jupiter))

			Expect(accs["Mars"]["Sun"][0].Kind()).To(Equal(forces.CentralGravity))
			Expect(updateAndGet(accs["Mars"]["Sun"][0])).To(Equal(updateAndGet(manualSun)))
			Expect(updateAndGet(accs["Mars"]["Jupiter"][0])).To(Equal(updateAndGet(manualJupiter)))
		})

		It("folds in mutual attraction and corrects third bodies about the Sun", func() {
			accs, err := setup.NewBuilder(reg).Build(selected, setup.CentralBodyMap{"Mars": "Sun"})
			Expect(err).NotTo(HaveOccurred())

			manualSun := gravity.NewCentralGravity(reg.PositionFunc(mars), muSun+muMars, reg.PositionFunc(sun))
			manualJupiter := gravity.NewThirdBody(
				gravity.NewCentralGravity(reg.PositionFunc(mars), muJupiter, reg.PositionFunc(jupiter)),
				gravity.NewCentralGravity(reg.PositionFunc(sun), muJupiter, reg.PositionFunc(jupiter)),
			)

			Expect(updateAndGet(accs["Mars"]["Sun"][0])).To(Equal(updateAndGet(manualSun)))
			Expect(accs["Mars"]["Jupiter"][0].Kind()).To(Equal(forces.ThirdBody))
			Expect(updateAndGet(accs["Mars"]["Jupiter"][0])).To(Equal(updateAndGet(manualJupiter)))
		})

		It("can disable mutual attraction per settings", func() {
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Mars", "Sun", setup.CentralGravity().WithMutualAttraction(false))
			accs, err := setup.NewBuilder(reg).Build(sel, setup.CentralBodyMap{"Mars": "Sun"})
			Expect(err).NotTo(HaveOccurred())
			m := accs["Mars"]["Sun"][0].(*gravity.CentralGravity)
			Expect(m.GravitationalParameter()).To(Equal(muSun))
		})

		It("folds the affected μ into third-body direct terms on request", func() {
			accs, err := setup.NewBuilder(reg, setup.WithThirdBodyMutualAttraction(true)).
				Build(selected, setup.CentralBodyMap{"Mars": "Sun"})
			Expect(err).NotTo(HaveOccurred())
			tb := accs["Mars"]["Jupiter"][0].(*gravity.ThirdBody)
			Expect(tb.Direct().GravitationalParameter()).To(Equal(muJupiter + muMars))
			Expect(tb.Central().GravitationalParameter()).To(Equal(muJupiter))
		})

		It("honours a custom global origin", func() {
			accs, err := setup.NewBuilder(reg, setup.WithGlobalOrigin("Sun")).
				Build(selected, setup.CentralBodyMap{"Mars": "Sun"})
			Expect(err).NotTo(HaveOccurred())
			Expect(accs["Mars"]["Jupiter"][0].Kind()).To(Equal(forces.CentralGravity))
		})

		It("keeps settings order within an exerting body", func() {
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Mars", "Sun", setup.CentralGravity(), setup.CentralGravity().WithMutualAttraction(false))
			accs, err := setup.NewBuilder(reg).Build(sel, setup.CentralBodyMap{"Mars": "Sun"})
			Expect(err).NotTo(HaveOccurred())
			Expect(accs.Count("Mars")).To(Equal(2))
			Expect(accs["Mars"]["Sun"][0].(*gravity.CentralGravity).GravitationalParameter()).To(Equal(muSun + muMars))
			Expect(accs["Mars"]["Sun"][1].(*gravity.CentralGravity).GravitationalParameter()).To(Equal(muSun))
		})
	})

	Describe("spherical harmonics", func() {
		var earth, vehicle bodies.Handle
		var selected setup.SelectedAccelerationMap
		earthState := dynamo.State{1.1e11, 0.5e11, 0.01e11, 0, 0, 0}

		BeforeEach(func() {
			reg = bodies.NewRegistry()
			earth = reg.MustAdd(&bodies.Body{Name: "Earth", Gravity: earthField()})
			vehicle = reg.MustAdd(&bodies.Body{Name: "Vehicle"})
			Expect(reg.SetState(earth, earthState)).To(Succeed())
			Expect(reg.SetState(vehicle, earthState.Add(dynamo.State{7.0e6, 8.0e6, 9.0e6, 0, 0, 0}))).To(Succeed())
			selected = setup.SelectedAccelerationMap{}
			selected.Add("Vehicle", "Earth", setup.SphericalHarmonics(5, 5))
		})

		manual := func(mu float64) forces.AccelerationModel {
			m, err := gravity.NewSphericalHarmonics(reg.PositionFunc(vehicle), earthField(), 5, 5,
				reg.PositionFunc(earth), nil, gravity.WithGravitationalParameter(mu))
			Expect(err).NotTo(HaveOccurred())
			return m
		}

		It("matches a manually built model", func() {
			accs, err := setup.NewBuilder(reg).Build(selected, setup.CentralBodyMap{"Vehicle": "Earth"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updateAndGet(accs["Vehicle"]["Earth"][0])).To(Equal(updateAndGet(manual(muEarth))))
		})

		It("uses the exerting μ alone by default even when the vehicle has a field", func() {
			reg.Body(vehicle).Gravity = gravity.PointMassField{Mu: 0.1 * muEarth}
			accs, err := setup.NewBuilder(reg).Build(selected, setup.CentralBodyMap{"Vehicle": "Earth"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updateAndGet(accs["Vehicle"]["Earth"][0])).To(Equal(updateAndGet(manual(muEarth))))
		})

		It("folds in the vehicle μ when mutual attraction is requested", func() {
			reg.Body(vehicle).Gravity = gravity.PointMassField{Mu: 0.1 * muEarth}
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Vehicle", "Earth", setup.SphericalHarmonics(5, 5).WithMutualAttraction(true))
			accs, err := setup.NewBuilder(reg).Build(sel, setup.CentralBodyMap{"Vehicle": "Earth"})
			Expect(err).NotTo(HaveOccurred())

			got := updateAndGet(accs["Vehicle"]["Earth"][0])
			want := updateAndGet(manual(muEarth + 0.1*muEarth))
			Expect(got.X).To(BeNumerically("~", want.X, 1e-15*r3.Norm(want)))
			Expect(got.Y).To(BeNumerically("~", want.Y, 1e-15*r3.Norm(want)))
			Expect(got.Z).To(BeNumerically("~", want.Z, 1e-15*r3.Norm(want)))
		})

		It("uses the exerting body's rotation model", func() {
			reg.Body(earth).Rotation = frames.UniformZ{Rate: 7.292115e-5}
			reg.UpdateRotations(3600)
			accs, err := setup.NewBuilder(reg).Build(selected, setup.CentralBodyMap{"Vehicle": "Earth"})
			Expect(err).NotTo(HaveOccurred())
			rotated := updateAndGet(accs["Vehicle"]["Earth"][0])
			Expect(rotated).NotTo(Equal(updateAndGet(manual(muEarth))))
			Expect(r3.Norm(rotated)).To(BeNumerically("~", r3.Norm(updateAndGet(manual(muEarth))), 1e-4))
		})

		It("rejects a degree beyond the field", func() {
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Vehicle", "Earth", setup.SphericalHarmonics(6, 0))
			_, err := setup.NewBuilder(reg).Build(sel, setup.CentralBodyMap{"Vehicle": "Earth"})
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})

		It("rejects spherical harmonics on a point-mass field", func() {
			reg.Body(earth).Gravity = gravity.PointMassField{Mu: muEarth}
			_, err := setup.NewBuilder(reg).Build(selected, setup.CentralBodyMap{"Vehicle": "Earth"})
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})
	})

	Describe("configuration errors", func() {
		BeforeEach(func() {
			reg = bodies.NewRegistry()
			reg.MustAdd(&bodies.Body{Name: "Earth", Gravity: gravity.PointMassField{Mu: muEarth}, Radius: rEarth})
			reg.MustAdd(&bodies.Body{Name: "Moon"})
			reg.MustAdd(&bodies.Body{Name: "Sat", Mass: 100})
		})

		DescribeTable("fail before any evaluation",
			func(build func(setup.SelectedAccelerationMap), central setup.CentralBodyMap) {
				sel := setup.SelectedAccelerationMap{}
				build(sel)
				accs, err := setup.NewBuilder(reg).Build(sel, central)
				Expect(accs).To(BeNil())
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue(), "got %v", err)
			},
			Entry("self-loop", func(s setup.SelectedAccelerationMap) { s.Add("Earth", "Earth", setup.CentralGravity()) },
				setup.CentralBodyMap{"Earth": "SSB"}),
			Entry("unknown affected body", func(s setup.SelectedAccelerationMap) { s.Add("Mars", "Earth", setup.CentralGravity()) },
				setup.CentralBodyMap{"Mars": "SSB"}),
			Entry("unknown exerting body", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Venus", setup.CentralGravity()) },
				setup.CentralBodyMap{"Sat": "Earth"}),
			Entry("unknown origin", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Earth", setup.CentralGravity()) },
				setup.CentralBodyMap{"Sat": "Venus"}),
			Entry("missing origin", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Earth", setup.CentralGravity()) },
				setup.CentralBodyMap{}),
			Entry("body as its own origin", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Earth", setup.CentralGravity()) },
				setup.CentralBodyMap{"Sat": "Sat"}),
			Entry("missing gravity field", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Moon", setup.CentralGravity()) },
				setup.CentralBodyMap{"Sat": "Earth"}),
			Entry("spherical harmonics on a point-mass field", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Earth", setup.SphericalHarmonics(2, 0)) },
				setup.CentralBodyMap{"Sat": "Earth"}),
			Entry("unregistered type", func(s setup.SelectedAccelerationMap) {
				s.Add("Sat", "Earth", setup.AccelerationSettings{Type: "solar_radiation_pressure"})
			}, setup.CentralBodyMap{"Sat": "Earth"}),
			Entry("aerodynamics without coefficients", func(s setup.SelectedAccelerationMap) { s.Add("Sat", "Earth", setup.Aerodynamic()) },
				setup.CentralBodyMap{"Sat": "Earth"}),
		)

		It("rejects aerodynamics when the exerting body has no atmosphere", func() {
			sat := reg.Body(mustLookup(reg, "Sat"))
			sat.Coefficients = aerodynamics.NewCoefficientInterface(aerodynamics.ConstantCoefficients([6]float64{1}), 1, 1)
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Sat", "Earth", setup.Aerodynamic())
			_, err := setup.NewBuilder(reg).Build(sel, setup.CentralBodyMap{"Sat": "Earth"})
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})

		It("builds aerodynamics when the atmosphere is present", func() {
			reg.Body(mustLookup(reg, "Earth")).Atmosphere = aerodynamics.EarthExponential
			sat := reg.Body(mustLookup(reg, "Sat"))
			sat.Coefficients = aerodynamics.NewCoefficientInterface(aerodynamics.ConstantCoefficients([6]float64{1}), 1, 1)
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Sat", "Earth", setup.Aerodynamic(), setup.CentralGravity())
			accs, err := setup.NewBuilder(reg).Build(sel, setup.CentralBodyMap{"Sat": "Earth"})
			Expect(err).NotTo(HaveOccurred())
			Expect(accs["Sat"]["Earth"][0].Kind()).To(Equal(forces.Aerodynamic))
			Expect(accs["Sat"]["Earth"][1].Kind()).To(Equal(forces.CentralGravity))
			Expect(sat.FlightConditions()).NotTo(BeNil())
		})
	})

	Describe("custom constructors", func() {
		It("are looked up by settings type", func() {
			reg = bodies.NewRegistry()
			reg.MustAdd(&bodies.Body{Name: "Earth"})
			reg.MustAdd(&bodies.Body{Name: "Sat"})

			b := setup.NewBuilder(reg)
			b.Register("constant", setup.Constructor{
				New: func(_ *bodies.Registry, _, _ bodies.Handle, _ setup.AccelerationSettings, _ bool) (forces.AccelerationModel, error) {
					return gravity.NewCentralGravity(func() r3.Vec { return r3.Vec{X: 1} }, 1, func() r3.Vec { return r3.Vec{} }), nil
				},
			})
			sel := setup.SelectedAccelerationMap{}
			sel.Add("Sat", "Earth", setup.AccelerationSettings{Type: "constant"})
			accs, err := b.Build(sel, setup.CentralBodyMap{"Sat": "Earth"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updateAndGet(accs["Sat"]["Earth"][0])).To(Equal(r3.Vec{X: -1}))
		})
	})
})

func mustLookup(reg *bodies.Registry, name string) bodies.Handle {
	h, ok := reg.Lookup(name)
	Expect(ok).To(BeTrue())
	return h
}
