package integrators

import "github.com/san-kum/reactorsim/internal/dynamo"

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	k1, err := sys.Derive(x, t)
	if err != nil {
		return nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2, err := sys.Derive(r.scratch, t+dt*0.5)
	if err != nil {
		return nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3, err := sys.Derive(r.scratch, t+dt*0.5)
	if err != nil {
		return nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4, err := sys.Derive(r.scratch, t+dt)
	if err != nil {
		return nil, err
	}
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result, nil
}
