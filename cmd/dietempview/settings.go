package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dietemp/pkg/adc"
	"github.com/itohio/dietemp/pkg/config"
)

// showSettingsDialog displays the configuration tabs. Changes are saved to
// the config file and apply on the next connect.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createSamplingTab(state),
		createCalibrationTab(state),
		createMockTab(state),
	)

	d := dialog.NewCustom("Settings", "Close", tabs, state.window)
	d.Resize(fyne.NewSize(600, 450))
	d.Show()
}

func (s *appState) save() {
	if err := s.cfg.Save(s.cfgPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), s.window)
	}
}

func createSerialTab(state *appState) *container.TabItem {
	ports, _ := adc.Ports()
	current := state.cfg.Serial.Port
	if current != "" && !slices.Contains(ports, current) {
		ports = append(ports, current)
	}

	portSelect := widget.NewSelect(ports, nil)
	portSelect.SetSelected(current)

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Serial.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "Reply Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				state.cfg.Serial.Port = portSelect.Selected
			}
			if b, err := strconv.Atoi(baudEntry.Text); err == nil && b > 0 {
				state.cfg.Serial.BaudRate = b
			}
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil && d > 0 {
				state.cfg.Serial.Timeout = d
			}
			state.save()
		},
	}

	return container.NewTabItem("Serial", form)
}

func createSamplingTab(state *appState) *container.TabItem {
	warmupEntry := widget.NewEntry()
	warmupEntry.SetText(strconv.Itoa(state.cfg.Sampling.WarmupIterations))

	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.cfg.Sampling.Interval.String())

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(state.cfg.Sampling.AverageReadings))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Warmup Iterations", Widget: warmupEntry},
			{Text: "Interval", Widget: intervalEntry},
			{Text: "Average Readings (0=disabled)", Widget: averageEntry},
		},
		OnSubmit: func() {
			if n, err := strconv.Atoi(warmupEntry.Text); err == nil && n >= 0 {
				state.cfg.Sampling.WarmupIterations = n
			}
			if d, err := time.ParseDuration(intervalEntry.Text); err == nil && d > 0 {
				state.cfg.Sampling.Interval = d
			}
			if n, err := strconv.Atoi(averageEntry.Text); err == nil && n >= 0 {
				state.cfg.Sampling.AverageReadings = n
			}
			state.save()
		},
	}

	return container.NewTabItem("Sampling", form)
}

func createCalibrationTab(state *appState) *container.TabItem {
	sourceSelect := widget.NewSelect([]string{config.SourceDevice, config.SourceStatic}, nil)
	sourceSelect.SetSelected(state.cfg.Calibration.Source)

	entries := []struct {
		label string
		value *uint16
		entry *widget.Entry
	}{
		{label: "TS_CAL1", value: &state.cfg.Calibration.TSCalLow},
		{label: "TS_CAL2", value: &state.cfg.Calibration.TSCalHigh},
		{label: "VREFINT_CAL", value: &state.cfg.Calibration.VrefCal},
	}

	items := []*widget.FormItem{{Text: "Constants Source", Widget: sourceSelect}}
	for i := range entries {
		e := widget.NewEntry()
		e.SetText(strconv.Itoa(int(*entries[i].value)))
		entries[i].entry = e
		items = append(items, &widget.FormItem{Text: entries[i].label, Widget: e})
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			if sourceSelect.Selected != "" {
				state.cfg.Calibration.Source = sourceSelect.Selected
			}
			for _, e := range entries {
				if v, err := strconv.ParseUint(e.entry.Text, 10, 16); err == nil {
					*e.value = uint16(v)
				}
			}
			state.save()
		},
	}

	return container.NewTabItem("Calibration", form)
}

func createMockTab(state *appState) *container.TabItem {
	tempEntry := widget.NewEntry()
	tempEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.TemperatureC))

	driftEntry := widget.NewEntry()
	driftEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.DriftMV))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(strconv.Itoa(state.cfg.Mock.NoiseCodes))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Die Temperature (°C)", Widget: tempEntry},
			{Text: "Power-on Drift (mV)", Widget: driftEntry},
			{Text: "Noise (codes)", Widget: noiseEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(tempEntry.Text, 64); err == nil {
				state.cfg.Mock.TemperatureC = v
			}
			if v, err := strconv.ParseFloat(driftEntry.Text, 64); err == nil {
				state.cfg.Mock.DriftMV = v
			}
			if v, err := strconv.Atoi(noiseEntry.Text); err == nil && v >= 0 {
				state.cfg.Mock.NoiseCodes = v
			}
			state.save()
		},
	}

	return container.NewTabItem("Mock", form)
}

// showCalibrationDialog shows the constants and the model of the connected chip.
func showCalibrationDialog(state *appState) {
	if state.session == nil {
		return
	}
	cal := state.session.cal
	consts, model := cal.Constants(), cal.Model()

	supply, _ := cal.SupplyMillivolts(consts.VrefCal)
	form := widget.NewForm(
		widget.NewFormItem("TS_CAL1", widget.NewLabel(fmt.Sprintf("%d @ %.0f °C", consts.TSCalLow, consts.TempLowC))),
		widget.NewFormItem("TS_CAL2", widget.NewLabel(fmt.Sprintf("%d @ %.0f °C", consts.TSCalHigh, consts.TempHighC))),
		widget.NewFormItem("VREFINT_CAL", widget.NewLabel(fmt.Sprintf("%d (VCCA %.0f mV at calibration)", consts.VrefCal, supply))),
		widget.NewFormItem("Slope", widget.NewLabel(fmt.Sprintf("%.5f °C/mV", model.Slope))),
		widget.NewFormItem("Intercept", widget.NewLabel(fmt.Sprintf("%.2f °C", model.Intercept))),
	)
	dialog.ShowCustom("Calibration", "Close", form, state.window)
}
