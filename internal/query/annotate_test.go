package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateFieldPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		path    []string
		partial string
	}{
		{name: "empty query expects a field", input: ``, path: []string{""}},
		{name: "partial name", input: `ta`, path: []string{"ta"}, partial: "ta"},
		{name: "after field separator", input: `file.`, path: []string{"file", ""}},
		{name: "partial subfield", input: `file.na`, path: []string{"file", "na"}, partial: "na"},
		{name: "value position has no path", input: `tag:`, path: []string{}},
		{name: "completed value resets", input: `tag:x`, path: []string{}},
		{name: "after boolean operator", input: `tag:x AND `, path: []string{""}},
		{name: "after NOT", input: `NOT `, path: []string{""}},
		{name: "phrase segment is unquoted", input: `"odd name".su`, path: []string{"odd name", "su"}, partial: "su"},
		{name: "escaped dot in term", input: `attribute.a\.b`, path: []string{"attribute", "a.b"}, partial: `a\.b`},
		{name: "array wildcard keeps path", input: `cfg.urls*.`, path: []string{"cfg", "urls", ""}},
		{name: "inside a group", input: `(tag:x OR fi`, path: []string{"fi"}, partial: "fi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann, err := Annotate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.path, ann.FieldPath)
			assert.Equal(t, tt.partial, ann.Partial)
		})
	}
}

func TestAnnotateSubqueryTracking(t *testing.T) {
	t.Run("value parenthesis opens a subquery", func(t *testing.T) {
		ann, err := Annotate(`parent:(fi`)
		require.NoError(t, err)
		assert.True(t, ann.InsideSubquery)
		assert.Equal(t, 1, ann.Depth)
		assert.Equal(t, []string{"fi"}, ann.FieldPath)
	})

	t.Run("grouping parenthesis does not", func(t *testing.T) {
		ann, err := Annotate(`(fi`)
		require.NoError(t, err)
		assert.False(t, ann.InsideSubquery)
		assert.Equal(t, 1, ann.Depth)
	})

	t.Run("group nested in a subquery is still inside it", func(t *testing.T) {
		ann, err := Annotate(`parent:((tag:x OR fi`)
		require.NoError(t, err)
		assert.True(t, ann.InsideSubquery)
		assert.Equal(t, 2, ann.Depth)
	})

	t.Run("closing the subquery leaves it", func(t *testing.T) {
		ann, err := Annotate(`parent:(tag:x) AND `)
		require.NoError(t, err)
		assert.False(t, ann.InsideSubquery)
		assert.Equal(t, []string{""}, ann.FieldPath)
	})
}

func TestAnnotateTokenFacts(t *testing.T) {
	ann, err := Annotate(`parent:(tag:x)`)
	require.NoError(t, err)
	require.Len(t, ann.Tokens, 7)

	assert.Equal(t, []string{"parent"}, ann.Tokens[0].FieldPath)
	assert.False(t, ann.Tokens[0].InsideSubquery)
	assert.True(t, ann.Tokens[2].InsideSubquery)
	assert.Equal(t, []string{"tag"}, ann.Tokens[3].FieldPath)
	assert.Empty(t, ann.Tokens[5].FieldPath)
	assert.False(t, ann.Tokens[6].InsideSubquery)
	assert.Equal(t, StateValueEnd, ann.State)
}

func TestAnnotateNextKinds(t *testing.T) {
	ann, err := Annotate(`tag`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindFieldSep, KindArrayWildcard, KindValueSep}, ann.Next)
	assert.True(t, ann.Expects(KindValueSep))
	assert.False(t, ann.Expects(KindTerm))
	assert.Equal(t, "tag", ann.LastSegment())
}

func TestAnnotateReportsErrors(t *testing.T) {
	ann, err := Annotate(`tag: AND`)
	var gErr *GrammarError
	require.True(t, errors.As(err, &gErr))
	assert.Equal(t, 5, gErr.Token.Offset)
	require.NotNil(t, ann)
	assert.Len(t, ann.Tokens, 3)
	assert.Equal(t, StateValueStart, ann.State)

	_, err = Annotate(`tag:"open`)
	var lexErr *LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, 4, lexErr.Offset)
}

func TestSplitFieldPath(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: ".", want: []string{}},
		{input: "", want: []string{}},
		{input: "tag", want: []string{"tag"}},
		{input: "file.name", want: []string{"file", "name"}},
		{input: `attribute.a\.b`, want: []string{"attribute", "a.b"}},
		{input: `a\\.b`, want: []string{`a\`, "b"}},
		{input: `a\\\.b`, want: []string{`a\.b`}},
		{input: `keep\x`, want: []string{`keep\x`}},
		{input: "a.", want: []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitFieldPath(tt.input))
		})
	}
}

func TestJoinFieldPathRoundTrip(t *testing.T) {
	paths := [][]string{
		{"file", "name"},
		{"attribute", "a.b"},
		{`back\slash`, "x.y.z"},
	}
	for _, p := range paths {
		assert.Equal(t, p, SplitFieldPath(JoinFieldPath(p)))
	}
	assert.Equal(t, ".", JoinFieldPath(nil))
	assert.Equal(t, []string{}, SplitFieldPath(JoinFieldPath(nil)))
}
