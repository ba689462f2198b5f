package tracefmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0x7ffd0040", want: 0x7ffd0040},
		{in: "0X10", want: 0x10},
		{in: "ff", want: 0xff},
		{in: "(nil)", want: 0},
		{in: "0x10 trailing", want: 0x10},
		{in: "", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "0xg1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryMarker(t *testing.T) {
	m, op, ok := MemoryMarker("LOAD 0x10")
	assert.True(t, ok)
	assert.Equal(t, LoadMarker, m)
	assert.Equal(t, "0x10", op)

	m, op, ok = MemoryMarker("STORE\t(nil)")
	assert.True(t, ok)
	assert.Equal(t, StoreMarker, m)
	assert.Equal(t, "(nil)", op)

	_, _, ok = MemoryMarker("LOADED 0x10")
	assert.False(t, ok)
	_, _, ok = MemoryMarker("f | load | %x")
	assert.False(t, ok)
}

func TestIsFramingAndIsCall(t *testing.T) {
	assert.True(t, IsFraming(Header))
	assert.True(t, IsFraming(ShortHeader))
	assert.True(t, IsFraming("EOF"))
	assert.True(t, IsFraming("   "))
	assert.False(t, IsFraming("f | ret |"))

	assert.True(t, IsCall("CALL f ()"))
	assert.False(t, IsCall("Call to libVig model - f"))
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("Function | Instruction\r\nf | ret |  \r\n\nEOF\n"))
	require.NoError(t, err)
	assert.Equal(t, []SourceLine{{N: 2, Text: "f | ret |"}}, lines)
}

func TestMalformedTraceError(t *testing.T) {
	err := &MalformedTraceError{Line: 4, Text: "x", Reason: "bad"}
	assert.Equal(t, `<trace>:4: bad: "x"`, err.Error())
	err.File = "a.tracelog"
	assert.Equal(t, `a.tracelog:4: bad: "x"`, err.Error())
}
