// Trade between connected sites.
package economy

// Trade parameters.
const (
	// TradeMargin is the value ratio below which an exporter sells.
	TradeMargin = 0.8
	// TradeShare is the fraction of positive surplus offered per year.
	TradeShare = 0.25
	// TransportLoss is the fraction of goods lost in transit.
	TransportLoss = 0.1
)

// ResetExports clears the previous year's export bookkeeping.
func (e *Economy) ResetExports() {
	for i := range e.LastExports.Data {
		e.LastExports.Data[i] = 0
		e.ExportTargets.Data[i] = 0
	}
}

// Trade moves stock from src to dst wherever dst values it clearly more
// than src does. dst pays src in coin at its own valuation. Returns the
// total amount moved.
func Trade(src, dst *Economy) float32 {
	var moved float32
	for _, s := range AllStocks() {
		vs, vd := src.Values.Get(s), dst.Values.Get(s)
		if vs == nil || vd == nil || *vs >= *vd*TradeMargin {
			continue
		}
		surplus := src.Surplus.Get(s)
		if surplus <= 0 {
			continue
		}
		want := surplus * TradeShare
		src.ExportTargets.Set(s, src.ExportTargets.Get(s)+want)

		amount := min(want, src.Stocks.Get(s))
		price := *vd
		if cost := amount * price; cost > dst.Coin {
			amount = dst.Coin / price
		}
		if amount <= 0 {
			continue
		}
		cost := amount * price

		src.Stocks.Set(s, src.Stocks.Get(s)-amount)
		src.LastExports.Set(s, src.LastExports.Get(s)+amount)
		src.Coin += cost
		dst.Coin -= cost
		dst.Stocks.Set(s, dst.Stocks.Get(s)+amount*(1-TransportLoss))
		moved += amount
	}
	return moved
}
