package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) BindTools([]*schema.ToolInfo) error { return nil }

func TestHeuristicBuckets(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"Total number of trades for Platpot Fund", DataLookup},
		{"Custodian of Heather", DataLookup},
		{"What is the average market value?", Aggregation},
		{"Compare Garfield versus Heather", Comparison},
		{"Why did it drop?", Explanation},
		{"What is the capital of France?", OutOfScope},
		{"   ", OutOfScope},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, Heuristic(tc.query).Intent)
		})
	}
}

func TestHeuristicTieFavoursLookup(t *testing.T) {
	got := Heuristic("Which funds performed better depending on the yearly Profit and Loss of that fund")
	assert.Equal(t, DataLookup, got.Intent)
	assert.Positive(t, got.Score)
}

func TestParse(t *testing.T) {
	assert.Equal(t, Aggregation, Parse(" aggregation\n"))
	assert.Equal(t, Comparison, Parse("Intent: COMPARISON."))
	assert.Equal(t, OutOfScope, Parse("OUT_OF_SCOPE"))
	assert.Equal(t, OutOfScope, Parse("no idea"))
}

func TestClassifyWithoutModelUsesHeuristic(t *testing.T) {
	svc, err := NewService(context.Background(), nil, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, svc.LLMEnabled())

	assert.Equal(t, OutOfScope, svc.Classify(context.Background(), "tell me a joke"))
	assert.Equal(t, DataLookup, svc.Classify(context.Background(), "number of holdings for Garfield"))
}

func TestClassifyUsesModelOutput(t *testing.T) {
	m := &scriptedModel{reply: "EXPLANATION"}
	svc, err := NewService(context.Background(), m, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, svc.LLMEnabled())

	got := svc.Classify(context.Background(), "number of holdings for Garfield")
	assert.Equal(t, Explanation, got)

	require.Len(t, m.input, 2)
	assert.Equal(t, schema.System, m.input[0].Role)
	assert.Equal(t, "number of holdings for Garfield", m.input[1].Content)
}

func TestClassifyModelErrorFallsBack(t *testing.T) {
	m := &scriptedModel{err: errors.New("upstream down")}
	svc, err := NewService(context.Background(), m, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, Comparison, svc.Classify(context.Background(), "compare these two"))
	assert.Equal(t, DataLookup, svc.Classify(context.Background(), "tell me a joke"))
}

func TestClassifyEmptyModelOutputFallsBack(t *testing.T) {
	svc, err := NewService(context.Background(), &scriptedModel{reply: "  "}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, Explanation, svc.Classify(context.Background(), "explain why it dropped"))
}
