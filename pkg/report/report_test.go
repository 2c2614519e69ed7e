package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/itohio/dietemp/pkg/errcode"
	"github.com/itohio/dietemp/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTimestamp = time.Date(2024, time.May, 4, 12, 0, 0, 0, time.UTC)

	steadyReading = sample.Reading{Timestamp: testTimestamp, Phase: sample.Steady, TemperatureC: 36.5, SupplyMV: 3242}
	warmupReading = sample.Reading{Timestamp: testTimestamp, Phase: sample.Warmup, SupplyMV: 3300}
	failedReading = sample.Reading{
		Timestamp: testTimestamp,
		Phase:     sample.Steady,
		Err:       errcode.New(errcode.AcquisitionFailed, "read temperature", "timeout"),
	}
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(log.New(&buf, "", 0))

	l.Report(warmupReading)
	l.Report(steadyReading)
	l.Report(failedReading)

	assert.Equal(t,
		"VCCA: 3300 mV (warming up)\n"+
			"Temperature: 36.50 C, VCCA: 3242 mV\n"+
			"Degraded steady reading: read temperature: acquisition_failed: timeout\n",
		buf.String())
}

func TestNewPayload(t *testing.T) {
	cases := []struct {
		name string
		r    sample.Reading
		want string
	}{
		{
			name: "steady",
			r:    steadyReading,
			want: `{"timestamp":"2024-05-04T12:00:00Z","phase":"steady","temperature_c":36.5,"supply_mv":3242}`,
		},
		{
			name: "warmup",
			r:    warmupReading,
			want: `{"timestamp":"2024-05-04T12:00:00Z","phase":"warmup","supply_mv":3300}`,
		},
		{
			name: "degraded",
			r:    failedReading,
			want: `{"timestamp":"2024-05-04T12:00:00Z","phase":"steady","error":"read temperature: acquisition_failed: timeout"}`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := json.Marshal(NewPayload(c.r))
			require.NoError(t, err)
			assert.JSONEq(t, c.want, string(b))
		})
	}
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, qos, retained, payload.([]byte)})
	return newFakeToken(p.err)
}

func TestMQTT_Report(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMQTT(pub, "dietemp/reading")

	m.Report(steadyReading)
	m.Report(failedReading)

	require.Len(t, pub.msgs, 2)
	msg := pub.msgs[0]
	assert.Equal(t, "dietemp/reading", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.False(t, msg.retained)

	var got Payload
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	require.NotNil(t, got.TemperatureC)
	assert.Equal(t, 36.5, *got.TemperatureC)

	require.NoError(t, json.Unmarshal(pub.msgs[1].payload, &got))
	assert.Contains(t, got.Error, "acquisition_failed")
}

func TestMQTT_PublishErrorDoesNotPanic(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	m := NewMQTT(pub, "t")
	m.Report(steadyReading)
	m.wait(newFakeToken(pub.err))
	assert.Len(t, pub.msgs, 1)
}

type pointRecorder struct {
	points []*write.Point
}

func (r *pointRecorder) WritePoint(p *write.Point) {
	r.points = append(r.points, p)
}

func TestInflux_Report(t *testing.T) {
	rec := &pointRecorder{}
	i := NewInflux(rec, "bluepill")

	i.Report(warmupReading)
	i.Report(failedReading)
	i.Report(steadyReading)

	want := []*write.Point{
		influxdb2.NewPointWithMeasurement("die_temperature").
			AddTag("device", "bluepill").
			AddField("temperature_c", 36.5).
			AddField("supply_mv", 3242.0).
			SetTime(testTimestamp),
	}
	if diff := cmp.Diff(rec.points, want, cmp.AllowUnexported(write.Point{})); diff != "" {
		t.Errorf("Unexpected points (-got +want):\n%s", diff)
	}
	assert.NoError(t, i.Close())
}
