package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		line    string
		want    uint16
		wantErr error
		errText string
	}{
		{name: "code", tag: "V", line: "V 1528", want: 1528},
		{name: "whitespace", tag: "T", line: " T 4095\r", want: 4095},
		{name: "zero", tag: "T", line: "T 0", want: 0},
		{name: "constant", tag: "C0", line: "C0 1738", want: 1738},
		{name: "tagged error", tag: "T", line: "T E adc busy", errText: "device error: adc busy"},
		{name: "bare tagged error", tag: "T", line: "T E", errText: "device error: unspecified"},
		{name: "untagged error", tag: "V", line: "E line too long", errText: "device error: line too long"},
		{name: "bare error", tag: "V", line: "E", errText: "device error: unspecified"},
		{name: "other channel", tag: "T", line: "V 1528", wantErr: ErrStale},
		{name: "other constant", tag: "C1", line: "C0 1738", wantErr: ErrStale},
		{name: "other error", tag: "T", line: "V E adc busy", wantErr: ErrStale},
		{name: "untagged code", tag: "T", line: "1512", wantErr: ErrStale},
		{name: "garbage", tag: "T", line: "T 12ab", errText: "invalid reply"},
		{name: "missing value", tag: "T", line: "T", errText: "invalid reply"},
		{name: "too large", tag: "T", line: "T 70000", errText: "invalid reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.tag, tt.line)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrStale)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRequests(t *testing.T) {
	assert.Equal(t, "R T", ReadRequest(Temperature))
	assert.Equal(t, "R V", ReadRequest(Reference))
	assert.Equal(t, "C 2", ConstantRequest(2))
}

func TestTag(t *testing.T) {
	tests := []struct {
		req     string
		want    string
		wantErr error
	}{
		{"R T", "T", nil},
		{"R V", "V", nil},
		{"C 2", "C2", nil},
		{"C 007", "C7", nil},
		{"R E", "", ErrMalformed},
		{"C x", "", ErrMalformed},
		{"R", "", ErrMalformed},
		{"Q T", "", ErrUnknownCommand},
	}
	for _, tt := range tests {
		got, err := Tag(tt.req)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "request %q", tt.req)
			continue
		}
		require.NoError(t, err, "request %q", tt.req)
		assert.Equal(t, tt.want, got, "request %q", tt.req)
	}
}

type die struct {
	codes     map[string]uint16
	constants []uint16
}

func (d die) Convert(sym string) (uint16, error) {
	v, ok := d.codes[sym]
	if !ok {
		return 0, errors.New("no such channel")
	}
	return v, nil
}

func (d die) Constant(id uint8) (uint16, error) {
	if int(id) >= len(d.constants) {
		return 0, errors.New("no such constant")
	}
	return d.constants[id], nil
}

func TestRespond(t *testing.T) {
	d := die{
		codes:     map[string]uint16{Temperature: 1512, Reference: 1528},
		constants: []uint16{1738, 1287, 1528},
	}

	tests := []struct {
		line string
		want string
	}{
		{"R T", "T 1512"},
		{"R V", "V 1528"},
		{"  R   V \r", "V 1528"},
		{"C 0", "C0 1738"},
		{"C 2", "C2 1528"},
		{"C 3", "C3 E no such constant"},
		{"C x", "E malformed request"},
		{"C 300", "E malformed request"},
		{"R X", "X E no such channel"},
		{"R E", "E malformed request"},
		{"R", "E malformed request"},
		{"", "E malformed request"},
		{"Q T", "E unknown command"},
	}
	for _, tt := range tests {
		reply := Respond(tt.line, d)
		assert.Equal(t, tt.want, reply, "request %q", tt.line)
		assert.LessOrEqual(t, len(reply), MaxLine, "request %q", tt.line)
	}
}

func TestRoundTrip(t *testing.T) {
	d := die{codes: map[string]uint16{Reference: 1528}, constants: []uint16{1738}}

	for _, tt := range []struct {
		req  string
		want uint16
	}{
		{ReadRequest(Reference), 1528},
		{ConstantRequest(0), 1738},
	} {
		tag, err := Tag(tt.req)
		require.NoError(t, err)
		v, err := ParseReply(tag, Respond(tt.req, d))
		require.NoError(t, err)
		assert.Equal(t, tt.want, v)
	}

	req := ReadRequest(Temperature)
	tag, err := Tag(req)
	require.NoError(t, err)
	_, err = ParseReply(tag, Respond(req, d))
	assert.ErrorContains(t, err, "no such channel")
}
