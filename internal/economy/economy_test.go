package economy

import (
	"math"
	"reflect"
	"testing"
)

var richLand = NaturalResources{Wood: 400, Rock: 200, River: 300, Farmland: 800}

func TestZeroYearsIsIdentity(t *testing.T) {
	e := New()
	for i := 0; i < 20; i++ {
		e.Simulate(1, richLand)
	}
	before := e.Clone()
	e.Simulate(0, richLand)
	if !reflect.DeepEqual(before, e) {
		t.Fatalf("zero-year tick changed the economy")
	}
}

func TestPopulationStepIsBounded(t *testing.T) {
	for _, nat := range []NaturalResources{richLand, {}} {
		e := New()
		for year := 0; year < 300; year++ {
			old := e.Population
			e.Simulate(1, nat)
			if d := math.Abs(float64(e.Population - old)); d > float64(old)*(BirthRate+DeathRate)+1e-3 {
				t.Fatalf("year %d: population jumped by %v from %v", year, d, old)
			}
		}
	}
}

func TestValuesClampedOrNil(t *testing.T) {
	e := New()
	for year := 0; year < 200; year++ {
		e.Simulate(1, richLand)
		e.Values.Each(func(s Stock, v *float32) {
			if v == nil {
				return
			}
			if !(*v > ValueMin && *v < ValueMax) {
				t.Fatalf("year %d: %s value %v outside clamp", year, s, *v)
			}
		})
	}
}

func TestNoNaNAndLaborSumsToOne(t *testing.T) {
	e := New()
	for year := 0; year < 1000; year++ {
		e.Simulate(1, richLand)
	}
	check := func(name string, v float32) {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
	}
	check("population", e.Population)
	var sum float32
	for _, o := range AllOccupations() {
		check("labor "+o.String(), e.Labors.Get(o))
		check("productivity "+o.String(), e.Productivity.Get(o))
		sum += e.Labors.Get(o)
	}
	for _, s := range AllStocks() {
		check("stock "+s.String(), e.Stocks.Get(s))
		check("surplus "+s.String(), e.Surplus.Get(s))
		if e.Stocks.Get(s) < 0 {
			t.Fatalf("negative stock %s", s)
		}
	}
	if math.Abs(float64(sum)-1) > 1e-3 {
		t.Fatalf("labour fractions sum to %v", sum)
	}
}

func TestStockValueFormula(t *testing.T) {
	if v := stockValue(0, 10); v == nil || math.Abs(float64(*v)-3.5) > 1e-5 {
		t.Fatalf("balanced stock should be worth 3.5, got %v", v)
	}
	if v := stockValue(10, 10); v == nil || math.Abs(float64(*v)-1) > 1e-5 {
		t.Fatalf("surplus equal to demand should be worth 1, got %v", v)
	}
	if stockValue(5, 0) != nil {
		t.Fatalf("zero demand must give no value")
	}
	if stockValue(1e6, 1) != nil {
		t.Fatalf("huge surplus must underflow to nil")
	}
	if stockValue(-1e6, 1) != nil {
		t.Fatalf("huge deficit must overflow to nil")
	}
}

func TestRawStocksRefresh(t *testing.T) {
	e := New()
	e.Stocks.Set(Wheat, 0)
	e.Simulate(1, NaturalResources{Farmland: 500})
	// The refresh happens before production; after denature some wheat remains.
	if e.Stocks.Get(Wheat) <= 0 {
		t.Fatalf("wheat was not replenished from farmland")
	}
}

func TestTradeMovesGoodsAndCoin(t *testing.T) {
	src, dst := New(), New()
	low, high := float32(0.5), float32(5)
	src.Values.Set(Wood, &low)
	dst.Values.Set(Wood, &high)
	src.Surplus.Set(Wood, 40)
	src.Stocks.Set(Wood, 100)
	dst.Stocks.Set(Wood, 0)

	moved := Trade(&src, &dst)
	if moved != 10 {
		t.Fatalf("moved %v, want 10", moved)
	}
	if src.Stocks.Get(Wood) != 90 || src.LastExports.Get(Wood) != 10 {
		t.Fatalf("exporter bookkeeping wrong: stock=%v exports=%v", src.Stocks.Get(Wood), src.LastExports.Get(Wood))
	}
	if dst.Stocks.Get(Wood) != 9 {
		t.Fatalf("importer received %v, want 9", dst.Stocks.Get(Wood))
	}
	if src.Coin != InitialCoin+50 || dst.Coin != InitialCoin-50 {
		t.Fatalf("coin not transferred: %v / %v", src.Coin, dst.Coin)
	}

	src.ResetExports()
	if src.LastExports.Get(Wood) != 0 || src.ExportTargets.Get(Wood) != 0 {
		t.Fatalf("reset left exports behind")
	}
}

func TestTradeSkipsWithoutMargin(t *testing.T) {
	src, dst := New(), New()
	a, b := float32(1), float32(1.1)
	src.Values.Set(Fish, &a)
	dst.Values.Set(Fish, &b)
	src.Surplus.Set(Fish, 100)
	if Trade(&src, &dst) != 0 {
		t.Fatalf("trade should need a clear value gap")
	}
}
