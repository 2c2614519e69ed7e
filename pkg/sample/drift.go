package sample

import (
	"context"
	"time"

	"github.com/itohio/dietemp/pkg/adc"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/errcode"
)

// CompensatedReference averages the reference codes read before and after
// a temperature conversion. The result always lies between the two.
func CompensatedReference(before, after calib.RawCode) calib.RawCode {
	return calib.RawCode((uint32(before) + uint32(after)) / 2)
}

// Bracket reads the reference, the temperature sensor and the reference
// again, so first-order reference drift during the burst averages out.
func Bracket(ctx context.Context, src adc.Source) (Sample, error) {
	before, err := src.Read(ctx, adc.Reference)
	if err != nil {
		return Sample{}, errcode.Wrap(errcode.AcquisitionFailed, "read reference", err)
	}
	raw, err := src.Read(ctx, adc.Temperature)
	if err != nil {
		return Sample{}, errcode.Wrap(errcode.AcquisitionFailed, "read temperature", err)
	}
	ts := time.Now()
	after, err := src.Read(ctx, adc.Reference)
	if err != nil {
		return Sample{}, errcode.Wrap(errcode.AcquisitionFailed, "read reference", err)
	}

	return Sample{
		Raw:          raw,
		ReferenceRaw: CompensatedReference(before, after),
		Timestamp:    ts,
	}, nil
}
