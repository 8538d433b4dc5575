package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/tracelens/pkg/model"
	"github.com/grafana/tracelens/pkg/querier"
)

func renderFixture(t *testing.T) *querier.TreeView {
	t.Helper()
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"))
	b.AddSample(1, model.F("A"), model.F("B"), model.F("C"))
	q, err := querier.New(b.Build(), querier.Config{})
	require.NoError(t, err)
	return q.TreeView(querier.ViewConfig{})
}

func TestRenderTree(t *testing.T) {
	out := renderTree(renderFixture(t), 0)

	assert.Contains(t, out, "A: self 0 total 2")
	assert.Contains(t, out, "B: self 1 total 2")
	assert.Contains(t, out, "C: self 1 total 1")
}

func TestRenderTreeMaxDepth(t *testing.T) {
	out := renderTree(renderFixture(t), 2)

	assert.Contains(t, out, "B: self 1 total 2")
	assert.NotContains(t, out, "C:")
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("1.5:20")
	require.NoError(t, err)
	assert.Equal(t, 1.5, r.Start)
	assert.Equal(t, 20.0, r.End)

	_, err = parseRange("5")
	assert.Error(t, err)
	_, err = parseRange("9:4")
	assert.Error(t, err)
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "1,234", formatWeight(1234, model.WeightTypeSamples))
	assert.Equal(t, "1.0 KiB", formatWeight(1024, model.WeightTypeBytes))
	assert.Equal(t, "2.50ms", formatWeight(2.5, model.WeightTypeTracingMs))
}
