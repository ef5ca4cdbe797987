package intellisense_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/mwq/pkg/intellisense"
)

func TestGetSuggestions(t *testing.T) {
	got, err := intellisense.GetSuggestions("file.na", intellisense.ObjectTypeObject)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "file.name:", got[0].Apply("file.na"))
	assert.Equal(t, intellisense.SuggestionField, got[0].Kind)
}

func TestEngineWithSchema(t *testing.T) {
	custom, err := intellisense.NewSchema(map[intellisense.ObjectType][]intellisense.FieldDefinition{
		intellisense.ObjectTypeObject: {{Name: "one"}, {Name: "two", SubfieldContainer: true}},
	})
	require.NoError(t, err)

	engine := intellisense.New(intellisense.WithSchema(custom))
	assert.Same(t, custom, engine.Schema())
	assert.Len(t, engine.Fields(), 2)

	got, err := engine.Suggest("t", intellisense.ObjectTypeObject)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "two.", got[0].Text)
	assert.Equal(t, intellisense.SuggestionSubfield, got[0].Kind)
}

type staticProvider struct{}

func (staticProvider) DiscoverFields() []intellisense.FieldMetadata { return nil }

func (staticProvider) FilterCompletions(string, intellisense.SuggestionContext) []intellisense.Suggestion {
	return []intellisense.Suggestion{{Text: "fixed:", Display: "fixed:"}}
}

func TestEngineWithProvider(t *testing.T) {
	engine := intellisense.New(intellisense.WithProvider(staticProvider{}))
	got, err := engine.Suggest("anything", intellisense.ObjectTypeFile)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "anythingfixed:", got[0].Apply("anything"))
}

func TestQueryFunctions(t *testing.T) {
	tokens, err := intellisense.Tokenize(`tag:x`)
	require.NoError(t, err)
	assert.Len(t, tokens, 3)

	_, err = intellisense.Validate(`tag:`)
	require.NoError(t, err)
	_, err = intellisense.ValidateComplete(`tag:`)
	var gErr *intellisense.GrammarError
	require.True(t, errors.As(err, &gErr))
	off, ok := intellisense.ErrorOffset(err)
	assert.True(t, ok)
	assert.Equal(t, 4, off)

	ann, err := intellisense.Annotate(`parent:(`)
	require.NoError(t, err)
	assert.True(t, ann.InsideSubquery)
}

func ExampleEngine_Suggest() {
	engine := intellisense.New()
	suggestions, err := engine.Suggest("file.sha", intellisense.ObjectTypeObject)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, s := range suggestions {
		fmt.Println(s.Display, "=>", s.Apply("file.sha"))
	}
	// Output:
	// file.sha1: => file.sha1:
	// file.sha256: => file.sha256:
	// file.sha512: => file.sha512:
}
