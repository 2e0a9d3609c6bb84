package influxdb

import (
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

// ExportClassifiedRecords posts classified points to an InfluxDB Write API.
// Because it accepts a slice, use batches. The Write API will buffer and flush.
// The last error encountered is returned.
func ExportClassifiedRecords(records []tracepoint.ClassifiedRecord) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(params.INFLUXDB_URL, params.INFLUXDB_TOKEN, opts)
	writeAPI := client.WriteAPI(params.INFLUXDB_ORG, params.INFLUXDB_BUCKET)

	// Errors returns a channel for reading errors which occurs during async writes.
	// Must be called before performing any writes for errors to be collected.
	// The chan is unbuffered and must be drained or the writer will block.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for i := range records {
		rec := records[i]
		stopped := 0
		if rec.Stopped {
			stopped = 1
		}
		p := influxdb2.NewPointWithMeasurement("tracepoint").
			SetTime(rec.Time).
			AddTag("device", fmt.Sprintf("%d", rec.DeviceID)).
			AddTag("trace", fmt.Sprintf("%d", rec.TraceNumber)).
			AddField("latitude", rec.Lat).
			AddField("longitude", rec.Lon).
			AddField("distance_m", rec.DistanceM).
			AddField("time_diff_s", rec.TimeDiffS).
			AddField("speed_kmh", rec.SpeedKmh).
			AddField("stopped", stopped).
			AddField("stop_probability", rec.StopProbability)
		writeAPI.WritePoint(p)
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
