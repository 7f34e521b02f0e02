package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_Std(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0x01, 0x02}

	s := Encode(raw)
	assert.Equal(t, "+/8BAg==", s)

	got, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("not*base64")
	require.Error(t, err)
}

func TestEncodeURL_NoPadding(t *testing.T) {
	s := EncodeURL([]byte{0xfb, 0xff, 0x01, 0x02})
	assert.Equal(t, "-_8BAg", s)
}

func TestDecodeURL_AcceptsPaddedAndUnpadded(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{"no padding needed", "dmliZWR0cmFja2VyLWtleS13cmFw", []byte("vibedtracker-key-wrap")},
		{"unpadded", "YWI", []byte("ab")},
		{"padded", "YWI=", []byte("ab")},
		{"double padded", "-_8BAg==", []byte{0xfb, 0xff, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeURL_RejectsStdAlphabet(t *testing.T) {
	_, err := DecodeURL("+/8BAg")
	require.Error(t, err)
}

func TestRoundTrip_Empty(t *testing.T) {
	got, err := DecodeURL(EncodeURL(nil))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Decode(Encode(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
