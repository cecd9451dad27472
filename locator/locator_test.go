package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnusedDimensions(t *testing.T) {
	l, err := Parse("a:1,b:2,c:3,a:4")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, l.Unused())

	_ = l.DimensionValues("a")
	assert.Equal(t, []string{"b", "c"}, l.Unused())

	assert.True(t, l.Has("b"))
	assert.Equal(t, []string{"b", "c"}, l.Unused(), "Has must not mark dimensions used")

	l.MarkUsed("b", "c")
	assert.Empty(t, l.Unused())
}

func TestUnusedSingleValue(t *testing.T) {
	l, err := Parse("abc")
	require.NoError(t, err)

	assert.Equal(t, []string{SingleValueKey}, l.Unused())
	_, _ = l.SingleValue()
	assert.Empty(t, l.Unused())
}

func TestDimensionAsBool(t *testing.T) {
	l, err := Parse("a:true,b:FALSE,c:any,d:maybe")
	require.NoError(t, err)

	v, set, err := l.DimensionAsBool("a")
	require.NoError(t, err)
	assert.True(t, set)
	assert.True(t, v)

	v, set, err = l.DimensionAsBool("b")
	require.NoError(t, err)
	assert.True(t, set)
	assert.False(t, v)

	_, set, err = l.DimensionAsBool("c")
	require.NoError(t, err)
	assert.False(t, set)

	_, _, err = l.DimensionAsBool("d")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, set, err = l.DimensionAsBool("missing")
	require.NoError(t, err)
	assert.False(t, set)
}

func TestDimensionAsInt64Invalid(t *testing.T) {
	l, err := Parse("count:many")
	require.NoError(t, err)

	_, present, err := l.DimensionAsInt64("count")
	assert.True(t, present)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSplit(t *testing.T) {
	l, err := Parse("firstChar:a,firstChar:b,and:(x:1,y:2)")
	require.NoError(t, err)

	parts := l.Split()
	require.Len(t, parts, 3)
	assert.Equal(t, "firstChar:a", parts[0].String())
	assert.Equal(t, "firstChar:b", parts[1].String())
	assert.Equal(t, "and:(x:1,y:2)", parts[2].String())
	assert.Empty(t, l.Unused())
	assert.Equal(t, []string{"firstChar"}, parts[0].Unused())
}

func TestSplitKeepsHelp(t *testing.T) {
	l, err := Parse("firstChar:a,$help:x")
	require.NoError(t, err)

	parts := l.Split()
	require.Len(t, parts, 2)
	assert.False(t, parts[0].IsHelpRequested())
	assert.True(t, parts[1].IsHelpRequested())
}

func TestEmpty(t *testing.T) {
	l := Empty()
	assert.True(t, l.IsEmpty())
	assert.False(t, l.IsSingleValue())
	assert.Equal(t, 0, l.DimensionsCount())
	assert.Empty(t, l.Unused())
	assert.Equal(t, "", l.String())
}

func TestString(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"abc", "abc"},
		{"a:1,b:2", "a:1,b:2"},
		{"a(x:1),b:2", "a:(x:1),b:2"},
		{"a:(x:(y:1))", "a:(x:(y:1))"},
		{"a:", "a:"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, l.String())
		})
	}
}

func TestFormatValue(t *testing.T) {
	values := []string{"", "abc", "a:b", "buildType:Core,count:2", "(x)", "x)y,z", "a(b", "$base64:abc"}

	for _, value := range values {
		t.Run(value, func(t *testing.T) {
			l, err := Parse("name:" + FormatValue(value) + ",other:1")
			require.NoError(t, err)
			got, ok, err := l.Dimension("name")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, value, got)
		})
	}
}
