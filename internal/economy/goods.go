// Package economy provides the per-site stock, labour and value model.
package economy

// Stock is a tradeable commodity.
type Stock uint8

const (
	Wheat Stock = iota
	Flour
	Meat
	Fish
	Game
	Food
	Logs
	Wood
	Rock
	Stone
	NumStocks = 10
)

var stockNames = [NumStocks]string{"wheat", "flour", "meat", "fish", "game", "food", "logs", "wood", "rock", "stone"}

func (s Stock) String() string {
	if int(s) < NumStocks {
		return stockNames[s]
	}
	return "unknown"
}

// AllStocks lists every stock in index order.
func AllStocks() []Stock {
	out := make([]Stock, NumStocks)
	for i := range out {
		out[i] = Stock(i)
	}
	return out
}

// Occupation is a labour slot.
type Occupation uint8

const (
	Farmer Occupation = iota
	Lumberjack
	Miner
	Fisher
	Hunter
	Cook
	NumOccupations = 6
)

var occupationNames = [NumOccupations]string{"farmer", "lumberjack", "miner", "fisher", "hunter", "cook"}

func (o Occupation) String() string {
	if int(o) < NumOccupations {
		return occupationNames[o]
	}
	return "unknown"
}

// AllOccupations lists every occupation in index order.
func AllOccupations() []Occupation {
	out := make([]Occupation, NumOccupations)
	for i := range out {
		out[i] = Occupation(i)
	}
	return out
}

// MapVec is a dense vector indexed by a small enum.
type MapVec[K ~uint8, V any] struct {
	Data []V
}

// NewMapVec creates a vector of n entries set to def.
func NewMapVec[K ~uint8, V any](n int, def V) MapVec[K, V] {
	d := make([]V, n)
	for i := range d {
		d[i] = def
	}
	return MapVec[K, V]{Data: d}
}

func (m MapVec[K, V]) Get(k K) V    { return m.Data[k] }
func (m MapVec[K, V]) Set(k K, v V) { m.Data[k] = v }
func (m MapVec[K, V]) Len() int     { return len(m.Data) }

// Each calls f for every entry in index order.
func (m MapVec[K, V]) Each(f func(K, V)) {
	for i, v := range m.Data {
		f(K(i), v)
	}
}

// Clone returns a shallow copy of the vector.
func (m MapVec[K, V]) Clone() MapVec[K, V] {
	d := make([]V, len(m.Data))
	copy(d, m.Data)
	return MapVec[K, V]{Data: d}
}

// Order is an input requirement per worker (or per capita) per year.
type Order struct {
	Stock  Stock
	Amount float32
}

// PerCapitaOrders are consumed by every inhabitant regardless of labour.
var PerCapitaOrders = []Order{{Food, 0.5}}

// Orders lists the inputs each occupation consumes per worker per year.
var Orders = [NumOccupations][]Order{
	Farmer:     {{Wheat, 4}},
	Lumberjack: {{Logs, 4.5}},
	Miner:      {{Rock, 7.5}},
	Fisher:     {{Fish, 4}},
	Hunter:     {{Game, 4}},
	Cook:       {{Flour, 16}, {Meat, 4}, {Wood, 3}},
}

// Production is the output of one occupation per worker per year at full productivity.
type Production struct {
	Stock  Stock
	Amount float32
}

// Productions maps each occupation to its output.
var Productions = [NumOccupations]Production{
	Farmer:     {Flour, 2},
	Lumberjack: {Wood, 1.5},
	Miner:      {Stone, 0.6},
	Fisher:     {Meat, 3},
	Hunter:     {Meat, 0.25},
	Cook:       {Food, 20},
}

// NaturalResources summarises what a place's land provides each year.
type NaturalResources struct {
	Wood     float32 `json:"wood"`
	Rock     float32 `json:"rock"`
	River    float32 `json:"river"`
	Farmland float32 `json:"farmland"`
}

// RawStocks maps natural resources onto the raw stocks they replenish.
func (n NaturalResources) RawStocks() []Order {
	return []Order{
		{Wheat, n.Farmland},
		{Fish, n.River},
		{Logs, n.Wood},
		{Game, n.Wood},
		{Rock, n.Rock},
	}
}
