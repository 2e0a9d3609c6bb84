package stream

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/strayward/stopd/common"
	"github.com/strayward/stopd/params"
)

// ScanMeter logs row-scan throughput on a ticker while an ingest runs.
// It wraps the go-ethereum metrics meters, which do the rate windowing.
type ScanMeter struct {
	label      time.Time // any value, eg row timestamp
	interval   time.Duration
	started    time.Time
	ticker     *time.Ticker
	nn         atomic.Uint64
	reg        metrics.Registry
	count      metrics.Counter
	size       metrics.Counter
	countMeter metrics.Meter
	sizeMeter  metrics.Meter
}

func NewScanMeter(interval time.Duration) *ScanMeter {
	// Won't work without this global setting.
	metrics.Enabled = params.MetricsEnabled

	reg := metrics.NewRegistry()
	sm := &ScanMeter{
		reg:        reg,
		interval:   interval,
		started:    time.Now(),
		nn:         atomic.Uint64{},
		count:      metrics.NewCounter(),
		size:       metrics.NewCounter(),
		countMeter: metrics.NewMeter(),
		sizeMeter:  metrics.NewMeter(),
	}

	if err := reg.Register("row.count", sm.count); err != nil {
		panic(err)
	}
	if err := reg.Register("size.count", sm.size); err != nil {
		panic(err)
	}
	if err := reg.Register("row.meter", sm.countMeter); err != nil {
		panic(err)
	}
	if err := reg.Register("size.meter", sm.sizeMeter); err != nil {
		panic(err)
	}
	sm.nn.Store(0)
	go sm.run()
	return sm
}

// Mark records one scanned row of len(data) bytes.
func (sm *ScanMeter) Mark(label time.Time, data []byte) {
	sm.label = label
	sm.nn.Add(1)
	sm.count.Inc(1)
	sm.size.Inc(int64(len(data)))
	sm.countMeter.Mark(1)
	sm.sizeMeter.Mark(int64(len(data)))
}

func (sm *ScanMeter) run() {
	sm.ticker = time.NewTicker(sm.interval)
	for range sm.ticker.C {
		sm.log()
	}
}

func (sm *ScanMeter) log() {
	countSnap := sm.countMeter.Snapshot()
	sizeSnap := sm.sizeMeter.Snapshot()

	slog.Info("Read rows", "n", humanize.Comma(countSnap.Count()),
		"read.last", sm.label.Format(time.DateTime),
		"rps", common.DecimalToFixed(countSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(sm.started).Round(time.Second))
}

func (sm *ScanMeter) Stop() {
	if sm == nil || sm.ticker == nil {
		return
	}
	sm.ticker.Stop()
	sm.countMeter.Stop()
	sm.sizeMeter.Stop()
}
