// Program dietempview shows live die temperature readings in a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dietemp/pkg/adc"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/config"
	"github.com/itohio/dietemp/pkg/monitor"
	"github.com/itohio/dietemp/pkg/report"
	"github.com/itohio/dietemp/pkg/sample"
	"github.com/itohio/dietemp/pkg/scope"
	homedir "github.com/mitchellh/go-homedir"
)

// Scope redraws are throttled to ~60 FPS.
const updateInterval = 16 * time.Millisecond

func main() {
	defaultConfig := "config.yaml"
	if home, err := homedir.Dir(); err == nil {
		defaultConfig = path.Join(home, ".dietemp", "config.yaml")
	}

	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", defaultConfig, "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use the simulated die instead of the serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.dietemp")
	window := application.NewWindow("Die Temperature")
	window.Resize(fyne.NewSize(1000, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:     cfg,
		cfgPath: *configFlag,
		useMock: *mockFlag,
		window:  window,
		history: monitor.NewHistory(cfg.Sampling.HistoryWindow),
		scope:   scope.New(cfg.Sampling.HistoryWindow),
		status:  widget.NewLabel("Disconnected"),
	}
	state.history.OnUpdate(state.onHistoryUpdate)

	window.SetContent(container.NewBorder(
		createToolbar(state),
		state.status,
		nil,
		nil,
		state.scope,
	))
	window.SetOnClosed(func() { state.disconnect() })
	window.ShowAndRun()
}

// session is a running acquisition loop.
type session struct {
	device adc.Device
	cal    *calib.Calibration
	cancel context.CancelFunc
	done   chan struct{}
}

type appState struct {
	cfg     *config.Config
	cfgPath string
	useMock bool

	window     fyne.Window
	connectBtn *widget.Button
	infoBtn    *widget.Button
	status     *widget.Label
	scope      *scope.Scope
	history    *monitor.History

	session *session

	updateMu       sync.Mutex
	lastUpdateTime time.Time
}

func createToolbar(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})
	state.infoBtn = widget.NewButtonWithIcon("", theme.InfoIcon(), func() {
		showCalibrationDialog(state)
	})
	state.infoBtn.Disable()

	return container.NewHBox(state.connectBtn, settingsBtn, state.infoBtn)
}

func handleConnect(state *appState) {
	if state.session != nil {
		state.disconnect()
		return
	}
	if err := state.connect(); err != nil {
		dialog.ShowError(err, state.window)
	}
}

func (s *appState) connect() error {
	dev := adc.Open(s.cfg, s.useMock)
	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	cal, err := calib.New(s.cfg.Provider(dev), s.cfg.Reference(), s.cfg.ADC.Bits)
	if err != nil {
		dev.Close()
		return fmt.Errorf("calibration failed: %w", err)
	}

	s.history.Reset()
	sinks := monitor.Tee{report.NewLog(nil), s.history, monitor.SinkFunc(s.onReading)}

	var sink monitor.Sink = sinks
	stopFilter := func() {}
	if n := s.cfg.Sampling.AverageReadings; n > 0 {
		sink, stopFilter = monitor.Filtered(sinks, sample.NewAveragingFilter(n, 100), 100)
	}

	loop := monitor.New(dev, cal, sink, monitor.Options{
		Warmup:   s.cfg.Sampling.WarmupIterations,
		Interval: s.cfg.Sampling.Interval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{device: dev, cal: cal, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sess.done)
		defer stopFilter()
		loop.Run(ctx)
	}()

	s.session = sess
	s.connectBtn.SetIcon(theme.LogoutIcon())
	s.infoBtn.Enable()
	log.Printf("Connected, sampling every %v", s.cfg.Sampling.Interval)
	return nil
}

// disconnect stops the loop and closes the device.
func (s *appState) disconnect() {
	sess := s.session
	if sess == nil {
		return
	}
	s.session = nil

	sess.cancel()
	<-sess.done
	sess.device.Close()

	s.connectBtn.SetIcon(theme.LoginIcon())
	s.infoBtn.Disable()
	s.status.SetText("Disconnected")
	log.Println("Disconnected")
}

// onReading runs on the loop goroutine.
func (s *appState) onReading(r sample.Reading) {
	text := r.String()
	fyne.Do(func() {
		s.status.SetText(text)
		s.scope.SetStatus(fmt.Sprintf("VCCA %.0f mV", r.SupplyMV))
	})
}

// onHistoryUpdate runs on the loop goroutine.
func (s *appState) onHistoryUpdate(readings []sample.Reading, rates []float64) {
	s.updateMu.Lock()
	now := time.Now()
	if now.Sub(s.lastUpdateTime) < updateInterval {
		s.updateMu.Unlock()
		return
	}
	s.lastUpdateTime = now
	s.updateMu.Unlock()

	fyne.Do(func() {
		s.scope.UpdateData(readings, rates)
	})
}
