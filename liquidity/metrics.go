package liquidity

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes per-token reserve gauges, mirroring the teacher's
// singleton-registry pattern (observability/metrics/potso.go) rather than
// registering flat package-level collectors.
type Metrics struct {
	utilization   *prometheus.GaugeVec
	supplyPrice   *prometheus.GaugeVec
	borrowPrice   *prometheus.GaugeVec
}

var (
	metricsOnce     sync.Once
	metricsRegistry *Metrics
)

// MetricsRegistry returns the process-wide Reserve metrics singleton.
func MetricsRegistry() *Metrics {
	metricsOnce.Do(func() {
		metricsRegistry = &Metrics{
			utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "reserve_utilization_ratio",
				Help: "Current borrow/supply utilization ratio per reserve, in bps.",
			}, []string{"mint"}),
			supplyPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "reserve_supply_exchange_price",
				Help: "Current supply exchange price per reserve, scaled by ExchangePricesPrecision.",
			}, []string{"mint"}),
			borrowPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "reserve_borrow_exchange_price",
				Help: "Current borrow exchange price per reserve, scaled by ExchangePricesPrecision.",
			}, []string{"mint"}),
		}
	})
	return metricsRegistry
}

// Collectors returns the gauges for registration against a
// prometheus.Registerer; callers not running a metrics endpoint may ignore
// this entirely, per Observe's nil-safety.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.utilization, m.supplyPrice, m.borrowPrice}
}

// Observe records the current reserve state. It is nil-safe so engines can
// call it unconditionally whether or not a metrics registry was wired.
func (m *Metrics) Observe(r *Reserve) {
	if m == nil || r == nil {
		return
	}
	mint := r.Mint.String()
	supplyActual, err := r.actualSupply()
	if err != nil {
		return
	}
	borrowActual, err := r.actualBorrow()
	if err != nil {
		return
	}
	util, err := utilizationBps(borrowActual, supplyActual)
	if err != nil {
		return
	}
	m.utilization.WithLabelValues(mint).Set(bigToFloat(util))
	m.supplyPrice.WithLabelValues(mint).Set(bigToFloat(r.SupplyExchangePrice))
	m.borrowPrice.WithLabelValues(mint).Set(bigToFloat(r.BorrowExchangePrice))
}

func bigToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}
