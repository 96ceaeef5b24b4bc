// Yearly site economy — orders, labour reallocation, production and population.
package economy

import "math"

// Simulation constants.
const (
	ValueBase         = 3.5
	ValueMin          = 0.001
	ValueMax          = 1000
	LaborSmoothing    = 0.8
	DenatureRate      = 0.9
	BirthRate         = 0.15
	DeathRate         = 0.05
	ProductionExp     = 1.1
	MinDenominator    = 0.001
	InitialPopulation = 24
	InitialCoin       = 1000
)

// Economy is the mutable economic state of one site.
type Economy struct {
	Population    float32
	Stocks        MapVec[Stock, float32]
	Surplus       MapVec[Stock, float32]
	Values        MapVec[Stock, *float32] // nil when outside [ValueMin, ValueMax]
	Labors        MapVec[Occupation, float32]
	Yields        MapVec[Occupation, float32]
	Productivity  MapVec[Occupation, float32]
	LastExports   MapVec[Stock, float32]
	ExportTargets MapVec[Stock, float32]
	Coin          float32
}

// New returns a fresh economy with evenly split labour.
func New() Economy {
	e := Economy{
		Population:    InitialPopulation,
		Stocks:        NewMapVec[Stock, float32](NumStocks, 100),
		Surplus:       NewMapVec[Stock, float32](NumStocks, 0),
		Values:        NewMapVec[Stock, *float32](NumStocks, nil),
		Labors:        NewMapVec[Occupation, float32](NumOccupations, 1.0/NumOccupations),
		Yields:        NewMapVec[Occupation, float32](NumOccupations, 0),
		Productivity:  NewMapVec[Occupation, float32](NumOccupations, 1),
		LastExports:   NewMapVec[Stock, float32](NumStocks, 0),
		ExportTargets: NewMapVec[Stock, float32](NumStocks, 0),
		Coin:          InitialCoin,
	}
	for _, o := range AllOccupations() {
		e.Yields.Set(o, Productions[o].Amount)
	}
	return e
}

// Clone deep-copies the economy, including optional values.
func (e *Economy) Clone() Economy {
	c := *e
	c.Stocks = e.Stocks.Clone()
	c.Surplus = e.Surplus.Clone()
	c.Labors = e.Labors.Clone()
	c.Yields = e.Yields.Clone()
	c.Productivity = e.Productivity.Clone()
	c.LastExports = e.LastExports.Clone()
	c.ExportTargets = e.ExportTargets.Clone()
	c.Values = NewMapVec[Stock, *float32](e.Values.Len(), nil)
	e.Values.Each(func(s Stock, v *float32) {
		if v != nil {
			x := *v
			c.Values.Set(s, &x)
		}
	})
	return c
}

// Workers returns the number of people assigned to an occupation.
func (e *Economy) Workers(o Occupation) float32 {
	return e.Labors.Get(o) * e.Population
}

// Demand returns the yearly input demand per stock at the current labour split.
func (e *Economy) Demand() MapVec[Stock, float32] {
	demand := NewMapVec[Stock, float32](NumStocks, 0)
	for _, ord := range PerCapitaOrders {
		demand.Data[ord.Stock] += ord.Amount * e.Population
	}
	for _, o := range AllOccupations() {
		w := e.Workers(o)
		for _, ord := range Orders[o] {
			demand.Data[ord.Stock] += ord.Amount * w
		}
	}
	return demand
}

// Supply returns the expected yearly output per stock from current yields.
func (e *Economy) Supply() MapVec[Stock, float32] {
	supply := NewMapVec[Stock, float32](NumStocks, 0)
	for _, o := range AllOccupations() {
		supply.Data[Productions[o].Stock] += e.Yields.Get(o) * e.Labors.Get(o) * e.Population
	}
	return supply
}

// Simulate advances the economy by years. A non-positive duration is a no-op.
func (e *Economy) Simulate(years float32, nat NaturalResources) {
	if years <= 0 {
		return
	}

	// Raw stocks are replenished from the land.
	for _, r := range nat.RawStocks() {
		if r.Amount > e.Stocks.Get(r.Stock) {
			e.Stocks.Set(r.Stock, r.Amount)
		}
	}

	demand := e.Demand()
	supply := e.Supply()

	for _, s := range AllStocks() {
		surplus := supply.Get(s) + e.Stocks.Get(s) - demand.Get(s) - e.LastExports.Get(s)
		e.Surplus.Set(s, surplus)
		e.Values.Set(s, stockValue(surplus, demand.Get(s)))
	}

	e.reallocateLabor(demand, supply)
	e.produce(years, demand)

	// Inhabitants eat.
	for _, ord := range PerCapitaOrders {
		have := e.Stocks.Get(ord.Stock)
		e.Stocks.Set(ord.Stock, float32(math.Max(0, float64(have-ord.Amount*e.Population*years))))
	}

	denature := float32(math.Pow(DenatureRate, float64(years)))
	for _, s := range AllStocks() {
		e.Stocks.Set(s, e.Stocks.Get(s)*denature)
	}

	birth := float32(0)
	if e.Surplus.Get(Food) > 0 {
		birth = BirthRate
	}
	e.Population += e.Population * (birth - DeathRate) * years
	if e.Population < 0 {
		e.Population = 0
	}
}

// stockValue is ValueBase^(1 - surplus/demand), or nil when demand is zero or
// the result leaves the value clamp.
func stockValue(surplus, demand float32) *float32 {
	if demand <= 0 {
		return nil
	}
	v := math.Pow(ValueBase, float64(1-surplus/demand))
	if !(v > ValueMin && v < ValueMax) {
		return nil
	}
	f := float32(v)
	return &f
}

func (e *Economy) reallocateLabor(demand, supply MapVec[Stock, float32]) {
	ratios := make([]float32, NumOccupations)
	var sum float32
	for _, o := range AllOccupations() {
		out := Productions[o].Stock
		r := e.Productivity.Get(o) * demand.Get(out) / float32(math.Max(float64(supply.Get(out)), MinDenominator))
		if math.IsNaN(float64(r)) || math.IsInf(float64(r), 0) {
			r = 0
		}
		ratios[o] = r
		sum += r
	}

	floor := sum / 1000
	sum = 0
	for i := range ratios {
		if ratios[i] < floor {
			ratios[i] = floor
		}
		sum += ratios[i]
	}
	if sum < MinDenominator {
		return
	}

	for _, o := range AllOccupations() {
		target := ratios[o] / sum
		e.Labors.Set(o, e.Labors.Get(o)*LaborSmoothing+target*(1-LaborSmoothing))
	}
}

func (e *Economy) produce(years float32, demand MapVec[Stock, float32]) {
	before := e.Stocks.Clone()
	for _, o := range AllOccupations() {
		workers := e.Workers(o)

		productivity := float32(1)
		for _, ord := range Orders[o] {
			d := demand.Get(ord.Stock)
			if d <= 0 {
				continue
			}
			if p := before.Get(ord.Stock) / d; p < productivity {
				productivity = p
			}
		}
		if productivity < 0 {
			productivity = 0
		}
		e.Productivity.Set(o, productivity)

		for _, ord := range Orders[o] {
			left := e.Stocks.Get(ord.Stock) - ord.Amount*productivity*workers*years
			if left < 0 {
				left = 0
			}
			e.Stocks.Set(ord.Stock, left)
		}

		prod := Productions[o]
		scaled := float32(math.Pow(float64(workers), ProductionExp))
		output := prod.Amount * productivity * scaled * years
		e.Stocks.Set(prod.Stock, e.Stocks.Get(prod.Stock)+output)
		if workers > MinDenominator {
			e.Yields.Set(o, output/(workers*years))
		}
	}
}
