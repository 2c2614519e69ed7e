package sample

import (
	"context"
	"errors"
	"testing"

	"github.com/itohio/dietemp/pkg/adc"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequenceSource struct {
	codes []calib.RawCode
	errAt int // 1-based read that fails, 0 = none
	reads []adc.Channel
}

func (s *sequenceSource) Read(ctx context.Context, ch adc.Channel) (calib.RawCode, error) {
	s.reads = append(s.reads, ch)
	if len(s.reads) == s.errAt {
		return 0, errors.New("adc busy")
	}
	return s.codes[len(s.reads)-1], nil
}

func TestCompensatedReference(t *testing.T) {
	tests := []struct {
		name          string
		before, after calib.RawCode
		want          calib.RawCode
	}{
		{"equal", 1528, 1528, 1528},
		{"rising", 1520, 1530, 1525},
		{"falling", 1530, 1520, 1525},
		{"odd sum floors", 1527, 1528, 1527},
		{"zero", 0, 0, 0},
		{"no overflow at top", 65535, 65535, 65535},
		{"extremes", 0, 65535, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompensatedReference(tt.before, tt.after))
		})
	}
}

func TestCompensatedReference_Properties(t *testing.T) {
	codes := []calib.RawCode{0, 1, 2, 1000, 1527, 1528, 2047, 4094, 4095, 65534, 65535}

	for _, a := range codes {
		assert.Equal(t, a, CompensatedReference(a, a))
		for _, b := range codes {
			got := CompensatedReference(a, b)
			assert.GreaterOrEqual(t, got, min(a, b))
			assert.LessOrEqual(t, got, max(a, b))
			assert.Equal(t, got, CompensatedReference(b, a))

			for _, c := range codes {
				if c >= b {
					assert.GreaterOrEqual(t, CompensatedReference(a, c), got)
				}
			}
		}
	}
}

func TestBracket(t *testing.T) {
	src := &sequenceSource{codes: []calib.RawCode{1520, 1512, 1530}}

	s, err := Bracket(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []adc.Channel{adc.Reference, adc.Temperature, adc.Reference}, src.reads)
	assert.Equal(t, calib.RawCode(1512), s.Raw)
	assert.Equal(t, calib.RawCode(1525), s.ReferenceRaw)
	assert.False(t, s.Timestamp.IsZero())
}

func TestBracket_Errors(t *testing.T) {
	for errAt := 1; errAt <= 3; errAt++ {
		src := &sequenceSource{codes: []calib.RawCode{1528, 1738, 1528}, errAt: errAt}

		_, err := Bracket(context.Background(), src)
		require.Error(t, err, "read %d", errAt)
		assert.True(t, errors.Is(err, errcode.AcquisitionFailed))
		assert.Len(t, src.reads, errAt, "bracket stops at the failing read")
	}
}
