package report

import (
	"log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/itohio/dietemp/pkg/config"
	"github.com/itohio/dietemp/pkg/monitor"
	"github.com/itohio/dietemp/pkg/sample"
)

var _ monitor.Sink = (*Influx)(nil)

// Measurement is the InfluxDB measurement name readings are written to.
const Measurement = "die_temperature"

// PointWriter is the part of api.WriteAPI the sink uses.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Influx writes temperature readings to InfluxDB. Warmup and degraded
// readings are skipped.
type Influx struct {
	w      PointWriter
	device string
	close  func()
}

// NewInflux creates a sink writing through w.
func NewInflux(w PointWriter, device string) *Influx {
	return &Influx{w: w, device: device}
}

// DialInflux creates a sink with its own client. Writes are batched by the
// client; Close flushes them.
func DialInflux(cfg config.InfluxConfig, token string) *Influx {
	client := influxdb2.NewClient(cfg.URL, token)
	api := client.WriteAPI(cfg.Org, cfg.Bucket)

	go func() {
		for err := range api.Errors() {
			log.Printf("InfluxDB write failed: %v", err)
		}
	}()

	i := NewInflux(api, cfg.Device)
	i.close = func() {
		api.Flush()
		client.Close()
	}
	return i
}

// NewPoint converts a reading into an InfluxDB point.
func NewPoint(r sample.Reading, device string) *write.Point {
	return influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("device", device).
		AddField("temperature_c", r.TemperatureC).
		AddField("supply_mv", r.SupplyMV).
		SetTime(r.Timestamp)
}

func (i *Influx) Report(r sample.Reading) {
	if !r.HasTemperature() {
		return
	}
	i.w.WritePoint(NewPoint(r, i.device))
}

// Close flushes pending writes and closes the client, if owned.
func (i *Influx) Close() error {
	if i.close != nil {
		i.close()
		i.close = nil
	}
	return nil
}
