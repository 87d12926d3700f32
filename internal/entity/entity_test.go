package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/model"
	"github.com/sells-group/coverage-cli/pkg/eventregistry"
	"github.com/sells-group/coverage-cli/pkg/eventregistry/mocks"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestFilter_Apply(t *testing.T) {
	f := NewFilter(DefaultTypes, DefaultExcludedTypes)
	got := f.Apply([]Mention{
		{Name: "NATO", Type: "org"},
		{Name: " NATO ", Type: "ORG"},
		{Name: "Paris", Type: "loc"},
		{Name: "Monday", Type: "DATE"},
		{Name: "42", Type: "number"},
		{Name: "They", Type: "person"},
		{Name: "", Type: "person"},
		{Name: "Blue", Type: "color"},
		{Name: "Angela Merkel", Type: "person"},
	})
	assert.Equal(t, []string{"NATO", "Paris", "Angela Merkel"}, got)
}

func TestFilter_EmptyAllowKeepsUndenied(t *testing.T) {
	f := NewFilter(nil, DefaultExcludedTypes)
	assert.True(t, f.Allowed("color"))
	assert.False(t, f.Allowed("PERCENT"))
	assert.Equal(t, []string{"Blue"}, f.Apply([]Mention{{Name: "Blue", Type: "color"}, {Name: "5%", Type: "percent"}}))
}

func TestText(t *testing.T) {
	a := model.Article{Title: " NATO summit ", Body: "Leaders met. "}
	assert.Equal(t, "NATO summit", Text(a, TextTitle))
	assert.Equal(t, "NATO summit  Leaders met.", Text(a, TextTitleBody))
	assert.Equal(t, "Headline", Text(model.Article{Title: "Headline"}, TextTitleBody))
}

func TestTagger_DeduplicatesRepeatedMentions(t *testing.T) {
	ex := ExtractorFunc(func(context.Context, string) ([]Mention, error) {
		return []Mention{{"NATO", "org"}, {"NATO", "org"}, {"NATO", "org"}}, nil
	})
	tg := NewTagger(ex, NewFilter(DefaultTypes, nil))
	assert.Equal(t, []string{"NATO"}, tg.Tag(context.Background(), "NATO NATO NATO"))
}

func TestTagger_FailureYieldsNothing(t *testing.T) {
	var failures int
	ex := ExtractorFunc(func(context.Context, string) ([]Mention, error) {
		return nil, errors.New("status 500")
	})
	tg := NewTagger(ex, NewFilter(nil, nil), WithFailureHook(func(error) { failures++ }))
	assert.Nil(t, tg.Tag(context.Background(), "text"))
	assert.Equal(t, 1, failures)
}

func TestTagger_Timeout(t *testing.T) {
	ex := ExtractorFunc(func(ctx context.Context, _ string) ([]Mention, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	tg := NewTagger(ex, NewFilter(nil, nil), WithTimeout(10*time.Millisecond))
	assert.Nil(t, tg.Tag(context.Background(), "text"))
}

func TestTagger_BlankTextSkipsExtractor(t *testing.T) {
	called := false
	ex := ExtractorFunc(func(context.Context, string) ([]Mention, error) {
		called = true
		return nil, nil
	})
	assert.Nil(t, NewTagger(ex, Filter{}).Tag(context.Background(), "  "))
	assert.False(t, called)

	var nilTagger *Tagger
	assert.Nil(t, nilTagger.Tag(context.Background(), "x"))
}

func TestFromEventRegistry(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("NER", mock.Anything, "NATO in Paris").Return([]eventregistry.Entity{
		{Label: "NATO", Type: "org"},
		{Text: "Paris", Type: "loc"},
	}, nil)

	tg := NewTagger(FromEventRegistry(client), NewFilter(DefaultTypes, DefaultExcludedTypes))
	assert.Equal(t, []string{"NATO", "Paris"}, tg.Tag(context.Background(), "NATO in Paris"))
}

func TestFromEventRegistry_Error(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("NER", mock.Anything, "x").Return(nil, errors.New("down"))

	_, err := FromEventRegistry(client).Extract(context.Background(), "x")
	require.Error(t, err)
}
