package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// EnergyDrift is the largest relative change of the tracked energy from its
// first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
	sys           dynamo.Energetic
}

func NewEnergyDrift(sys dynamo.Energetic) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		sys:  sys,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy, err := e.sys.Energy(x)
	if err != nil {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// EnergyInventory is the energy held at the last observed grid point, in J.
type EnergyInventory struct {
	name   string
	sys    dynamo.Energetic
	energy float64
}

func NewEnergyInventory(sys dynamo.Energetic) *EnergyInventory {
	return &EnergyInventory{name: "energy_inventory", sys: sys}
}

func (e *EnergyInventory) Name() string { return e.name }

func (e *EnergyInventory) Observe(x dynamo.State, t float64) {
	if energy, err := e.sys.Energy(x); err == nil {
		e.energy = energy
	}
}

func (e *EnergyInventory) Value() float64 { return e.energy }
func (e *EnergyInventory) Reset()         { e.energy = 0 }
