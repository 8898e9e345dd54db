package huffman

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelloWorldRoundTrip(t *testing.T) {
	text := "hello world"
	code, err := Build(FrequencyOf(text))
	require.NoError(t, err)

	bits, err := code.Encode(text)
	require.NoError(t, err)
	// optimal cost for l:3 o:2 and six singletons
	assert.Len(t, bits, 32)

	decoded, err := code.Decode(bits)
	require.NoError(t, err)
	assert.Equal(t, text, decoded)

	assert.InDelta(t, (1-32.0/88.0)*100, CompressionRatio(text, bits), 1e-9)
}

func TestTiesFollowInsertionOrder(t *testing.T) {
	code, err := Build(map[rune]int{'c': 2, 'b': 1, 'a': 1})
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Symbol: 'a', Freq: 1, Bits: "10"},
		{Symbol: 'b', Freq: 1, Bits: "11"},
		{Symbol: 'c', Freq: 2, Bits: "0"},
	}, code.Codes())

	again, err := Build(map[rune]int{'a': 1, 'b': 1, 'c': 2})
	require.NoError(t, err)
	assert.Equal(t, code.Codes(), again.Codes())
}

func TestCodesArePrefixFree(t *testing.T) {
	code, err := Build(FrequencyOf("the quick brown fox jumps over the lazy dog"))
	require.NoError(t, err)

	entries := code.Codes()
	for i, a := range entries {
		require.NotEmpty(t, a.Bits)
		for j, b := range entries {
			if i != j {
				assert.False(t, strings.HasPrefix(b.Bits, a.Bits), "%q is a prefix of %q", a.Bits, b.Bits)
			}
		}
	}
}

func TestSingleSymbol(t *testing.T) {
	code, err := Build(map[rune]int{'x': 4})
	require.NoError(t, err)

	bits, ok := code.Lookup('x')
	require.True(t, ok)
	assert.Equal(t, "0", bits)

	enc, err := code.Encode("xxx")
	require.NoError(t, err)
	assert.Equal(t, "000", enc)

	dec, err := code.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "xxx", dec)

	_, err = code.Decode("01")
	assert.True(t, errors.Is(err, ErrInvalidCode))
}

func TestZeroFrequencySymbolsGetCodes(t *testing.T) {
	code, err := Build(map[rune]int{'a': 0, 'b': 5})
	require.NoError(t, err)
	_, ok := code.Lookup('a')
	assert.True(t, ok)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(nil)
	assert.True(t, errors.Is(err, ErrEmptyTable))

	_, err = Build(map[rune]int{'a': 1, 'b': -1})
	assert.True(t, errors.Is(err, ErrNegativeFrequency))
}

func TestEncodeUnknownSymbol(t *testing.T) {
	code, err := Build(FrequencyOf("abc"))
	require.NoError(t, err)
	_, err = code.Encode("abz")
	assert.True(t, errors.Is(err, ErrUnknownSymbol))
}

func TestDecodeErrors(t *testing.T) {
	code, err := Build(map[rune]int{'a': 1, 'b': 1, 'c': 2})
	require.NoError(t, err)

	_, err = code.Decode("1")
	assert.True(t, errors.Is(err, ErrTruncated))

	_, err = code.Decode("0110x")
	assert.True(t, errors.Is(err, ErrInvalidBit))

	out, err := code.Decode("")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = code.Decode("01011")
	require.NoError(t, err)
	assert.Equal(t, "cab", out)
}

func TestCompressionRatioEmptyText(t *testing.T) {
	assert.Equal(t, 0.0, CompressionRatio("", ""))
}

func TestUnicodeSymbols(t *testing.T) {
	text := "红黑树红黑"
	code, err := Build(FrequencyOf(text))
	require.NoError(t, err)
	bits, err := code.Encode(text)
	require.NoError(t, err)
	out, err := code.Decode(bits)
	require.NoError(t, err)
	assert.Equal(t, text, out)
}
