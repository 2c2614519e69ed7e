// Program dietemp reads the on-die temperature sensor of a microcontroller
// and reports calibrated readings to the log, MQTT, InfluxDB and HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/itohio/dietemp/pkg/adc"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/config"
	"github.com/itohio/dietemp/pkg/errcode"
	"github.com/itohio/dietemp/pkg/monitor"
	"github.com/itohio/dietemp/pkg/report"
	"github.com/itohio/dietemp/pkg/sample"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
)

// Environment variables holding secrets.
const (
	envMQTTUsername = "DIETEMP_MQTT_USERNAME"
	envMQTTPassword = "DIETEMP_MQTT_PASSWORD"
	envInfluxToken  = "DIETEMP_INFLUX_TOKEN"
)

const filterBufferSize = 100

func defaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "config.yaml"
	}
	return path.Join(home, ".dietemp", "config.yaml")
}

// loadEnv loads secrets from file. A missing file is not an error.
func loadEnv(file string) error {
	err := godotenv.Load(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	var (
		configFlag  = flag.String("config", defaultConfigPath(), "Configuration file path")
		portFlag    = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		mockFlag    = flag.Bool("mock", false, "Use the simulated die instead of the serial port")
		staticFlag  = flag.Bool("static", false, "Use the calibration constants from the config file")
		averageFlag = flag.Int("average", -1, "Number of readings to average (0 = disabled, overrides config)")
		listFlag    = flag.Bool("list", false, "List serial ports and exit")
	)
	flag.Parse()

	// Secrets may live in a .env file next to the binary.
	if err := loadEnv(".env"); err != nil {
		log.Printf("Ignoring environment file: %v", err)
	}

	if *listFlag {
		ports, err := adc.Ports()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *staticFlag {
		cfg.Calibration.Source = config.SourceStatic
	}
	if *averageFlag >= 0 {
		cfg.Sampling.AverageReadings = *averageFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *mockFlag); err != nil {
		if errcode.Fatal(errcode.Of(err)) {
			log.Printf("Calibration failed: %v", err)
		} else {
			log.Printf("Error: %v", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, mock bool) error {
	dev := adc.Open(cfg, mock)
	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", describe(cfg, mock), err)
	}
	defer dev.Close()
	log.Printf("Connected to %s", describe(cfg, mock))

	cal, err := calib.New(cfg.Provider(dev), cfg.Reference(), cfg.ADC.Bits)
	if err != nil {
		return err
	}
	consts, model := cal.Constants(), cal.Model()
	log.Printf("Calibration: TS_CAL1=%d TS_CAL2=%d VREFINT_CAL=%d slope=%.5f C/mV intercept=%.2f C",
		consts.TSCalLow, consts.TSCalHigh, consts.VrefCal, model.Slope, model.Intercept)

	sinks, closeSinks, err := openSinks(ctx, cfg, cal)
	if err != nil {
		return err
	}
	defer closeSinks()

	var sink monitor.Sink = sinks
	if n := cfg.Sampling.AverageReadings; n > 0 {
		in, stopFilter := monitor.Filtered(sinks, sample.NewAveragingFilter(n, filterBufferSize), filterBufferSize)
		defer stopFilter()
		sink = in
	}

	loop := monitor.New(dev, cal, sink, monitor.Options{
		Warmup:   cfg.Sampling.WarmupIterations,
		Interval: cfg.Sampling.Interval,
	})
	log.Printf("Sampling every %v after %d warmup iterations", cfg.Sampling.Interval, cfg.Sampling.WarmupIterations)

	// Run only returns once ctx is done; anything else is a failure.
	if err := loop.Run(ctx); ctx.Err() == nil {
		return err
	}
	log.Println("Stopped")
	return nil
}

// openSinks creates the configured sinks. The returned function releases them.
func openSinks(ctx context.Context, cfg *config.Config, cal *calib.Calibration) (monitor.Tee, func(), error) {
	sinks := monitor.Tee{report.NewLog(nil)}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MQTT.Broker != "" {
		client, err := report.ConnectMQTT(cfg.MQTT, os.Getenv(envMQTTUsername), os.Getenv(envMQTTPassword))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Disconnect(250) })
		sinks = append(sinks, report.NewMQTT(client, cfg.MQTT.Topic))
		log.Printf("Publishing readings to %s on %s", cfg.MQTT.Topic, cfg.MQTT.Broker)
	}

	if cfg.Influx.URL != "" {
		influx := report.DialInflux(cfg.Influx, os.Getenv(envInfluxToken))
		closers = append(closers, func() { influx.Close() })
		sinks = append(sinks, influx)
		log.Printf("Writing readings to InfluxDB bucket %s at %s", cfg.Influx.Bucket, cfg.Influx.URL)
	}

	if cfg.HTTP.Addr != "" {
		latest := &report.Latest{}
		srv := report.NewServer(cfg.HTTP.Addr, latest, cal)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("HTTP server failed: %v", err)
			}
		}()
		sinks = append(sinks, latest)
		log.Printf("Serving readings on %s", cfg.HTTP.Addr)
	}

	return sinks, closeAll, nil
}

func describe(cfg *config.Config, mock bool) string {
	if mock {
		return "simulated die"
	}
	return "serial port " + cfg.Serial.Port
}
