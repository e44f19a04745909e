package metrics_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/ft/metrics"
	"github.com/n-dise/ndnft/ft/pipeline"
	"github.com/n-dise/ndnft/ft/wire"
	"github.com/stretchr/testify/require"
)

type fakeFace struct {
	mu sync.Mutex
}

func (f *fakeFace) String() string                      { return "fake-face" }
func (f *fakeFace) IsRunning() bool                      { return true }
func (f *fakeFace) IsLocal() bool                        { return true }
func (f *fakeFace) Dataroom() int                        { return 9000 }
func (f *fakeFace) Open() error                          { return nil }
func (f *fakeFace) Close() error                         { return nil }
func (f *fakeFace) OnPacket(func([]byte))                {}
func (f *fakeFace) OnError(func(error))                  {}
func (f *fakeFace) OnDisconnect(func()) (cancel func())  { return func() {} }
func (f *fakeFace) Send([]byte) error                    { return nil }
func (f *fakeFace) SendBatch(pkts [][]byte) (int, error) { return len(pkts), nil }

func TestPipelineCollectorReportsCounters(t *testing.T) {
	f := &fakeFace{}
	pl := pipeline.New(pipeline.VariantFixed, 64, f)
	defer pl.Close()

	reg := prometheus.NewRegistry()
	coll := metrics.NewPipelineCollector("test", pl)
	require.NoError(t, metrics.Register(reg, coll))

	consumer := pl.Register()
	i := &wire.Interest{Name: enc.ParseName("/ndn/ft/data/file.bin/segment=0"), Lifetime: time.Second}
	require.NoError(t, pl.Push(consumer, i))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && pl.Counters().Tx == 0 {
		time.Sleep(time.Millisecond)
	}

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, mf := range metricFamilies {
		if mf.GetName() == "ndnft_pipeline_tx_total" {
			found = mf
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 1)
	require.Equal(t, float64(1), found.Metric[0].GetCounter().GetValue())
}

func TestCacheCollectorReportsStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	coll := metrics.NewCacheCollector(func() metrics.CacheStats {
		return metrics.CacheStats{OpenHandles: 3, Evictions: 5}
	})
	require.NoError(t, metrics.Register(reg, coll))

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, metricFamilies, 2)
}
