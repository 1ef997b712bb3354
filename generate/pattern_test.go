package generate

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestParsePatternRejectsBadArity(t *testing.T) {
	for _, token := range []string{
		"increment/1/2",
		"increment/x",
		"string/5",
		"text/5",
		"int/1",
		"float/1",
		"boolean/1",
		"array/1/2/3",
		"array_float/1/2",
	} {
		_, err := ParsePattern(token, builtinWords)
		assert.ErrorIs(t, err, ErrBadPattern, token)
	}
}

func TestIncrementSequence(t *testing.T) {
	p, err := ParsePattern("increment/10", nil)
	require.NoError(t, err)

	counters := counterTable{}
	rng := testRand()
	assert.Equal(t, "10", p.Generate(rng, counters))
	assert.Equal(t, "11", p.Generate(rng, counters))
	assert.Equal(t, "12", p.Generate(rng, counters))
}

func TestIncrementDefaultsToOne(t *testing.T) {
	p, err := ParsePattern("increment", nil)
	require.NoError(t, err)

	assert.Equal(t, "1", p.Generate(testRand(), counterTable{}))
}

func TestIntStaysInRange(t *testing.T) {
	p, err := ParsePattern("int/1/10", nil)
	require.NoError(t, err)

	rng := testRand()
	for i := 0; i < 200; i++ {
		n, err := strconv.Atoi(p.Generate(rng, nil))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 10)
	}
}

func TestStringLength(t *testing.T) {
	p, err := ParsePattern("string/3/5", nil)
	require.NoError(t, err)

	rng := testRand()
	for i := 0; i < 100; i++ {
		s := p.Generate(rng, nil)
		assert.GreaterOrEqual(t, len(s), 3)
		assert.LessOrEqual(t, len(s), 5)
	}
}

func TestBooleanIsBinary(t *testing.T) {
	p, err := ParsePattern("boolean", nil)
	require.NoError(t, err)

	rng := testRand()
	for i := 0; i < 20; i++ {
		assert.Contains(t, []string{"0", "1"}, p.Generate(rng, nil))
	}
}

func TestTextLooksLikeSentences(t *testing.T) {
	p, err := ParsePattern("text/5/10", builtinWords)
	require.NoError(t, err)

	rng := testRand()
	for i := 0; i < 50; i++ {
		text := p.Generate(rng, nil)
		require.NotEmpty(t, text)
		assert.True(t, strings.HasSuffix(text, "."), text)
		first := text[0]
		assert.True(t, first >= 'A' && first <= 'Z', text)

		words := strings.Fields(text)
		assert.GreaterOrEqual(t, len(words), 5)
		assert.LessOrEqual(t, len(words), 10)
	}
}

func TestArrayBoundsAndSize(t *testing.T) {
	p, err := ParsePattern("array/2/4/1/9", nil)
	require.NoError(t, err)

	rng := testRand()
	for i := 0; i < 100; i++ {
		parts := strings.Split(p.Generate(rng, nil), ",")
		assert.GreaterOrEqual(t, len(parts), 2)
		assert.LessOrEqual(t, len(parts), 4)
		for _, part := range parts {
			n, err := strconv.Atoi(part)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, 9)
		}
	}
}

func TestUnknownTypeIsExact(t *testing.T) {
	p, err := ParsePattern("nosuchtype/1/2", nil)
	require.NoError(t, err)

	assert.Equal(t, "nosuchtype/1/2", p.Generate(testRand(), nil))
}
