package inline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictnorm/internal/app/importer/layout"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	ext, err := New("").Extract([]string{
		"天<br>t'ien",
		"1. heaven<hr>2. sky, firmament<br>3. day",
	})
	require.NoError(t, err)

	assert.Equal(t, "天", ext.Headword)
	require.Len(t, ext.Blocks, 1)
	b := ext.Blocks[0]
	assert.False(t, b.DetectAnnotation)
	assert.Equal(t, []string{"t'ien"}, b.Readings)
	assert.Equal(t, []string{"heaven2. sky, firmament", "day"}, b.Meanings)
}

func TestExtract_NumbersOnEachLine(t *testing.T) {
	t.Parallel()

	ext, err := New("").Extract([]string{"天<BR/>t'ien", "1. heaven<br>2. sky<br>no number<br>10. ten"})
	require.NoError(t, err)
	assert.Equal(t, []string{"heaven", "sky", "no number", "ten"}, ext.Blocks[0].Meanings)
}

func TestExtract_DecimalMeaningKeepsNumber(t *testing.T) {
	t.Parallel()

	ext, err := New("").Extract([]string{"斤<br>kan", "1. a catty<br>2.5 catties make a kan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a catty", "2.5 catties make a kan"}, ext.Blocks[0].Meanings)
}

func TestExtract_ReadingWithParenIsLiteral(t *testing.T) {
	t.Parallel()

	ext, err := New("").Extract([]string{"天<br>t'ien (lit.)", "sky"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t'ien (lit.)"}, ext.Blocks[0].Readings)
}

func TestExtract_Malformed(t *testing.T) {
	t.Parallel()

	ext, err := New("").Extract([]string{"天 t'ien", "sky"})
	assert.True(t, errors.Is(err, layout.ErrMalformedRow))
	assert.Equal(t, "天 t'ien", ext.Headword)

	_, err = New("").Extract([]string{"天<br>t'ien"})
	assert.True(t, errors.Is(err, layout.ErrMalformedRow))
}

func TestLayout_Metadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "r", New("").SourceTag())
	assert.Equal(t, "inline", New("").Name())
	assert.False(t, New("").SplitSenses())
}
