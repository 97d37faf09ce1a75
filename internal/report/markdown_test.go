package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRendererSections(t *testing.T) {
	var buf strings.Builder
	err := NewMarkdownRenderer().Render(context.Background(), sampleResult(), &buf)
	require.NoError(t, err)
	out := buf.String()

	headings := []string{
		"# Benford Analysis Report",
		"## What this report is",
		"## How to read the results",
		"## Top columns by deviation (MAD)",
		"## Overall digit distribution",
		"## Detailed digit breakdown",
		"### Revenue / amount",
	}
	last := -1
	for _, h := range headings {
		idx := strings.Index(out, h)
		require.GreaterOrEqual(t, idx, 0, "missing heading %q", h)
		assert.Greater(t, idx, last, "heading %q out of order", h)
		last = idx
	}

	assert.Contains(t, out, "Generated: 2025-07-14 10:30")
	assert.Contains(t, out, "Input file: `je_samples.xlsx`")
}

func TestMarkdownRendererTables(t *testing.T) {
	var buf strings.Builder
	err := NewMarkdownRenderer().Render(context.Background(), sampleResult(), &buf)
	require.NoError(t, err)
	out := buf.String()

	// ranked summary row: values, MAD, chi-square, p-value
	assert.Contains(t, out, "| Revenue | amount | 100 | 0.0123 | 1.2345 | 0.996 |")
	// overall distribution row for digit 1
	assert.Contains(t, out, "| 1 | 30 | 30.0% | 30.1% |")
	// detail rows keep the sign on the difference
	assert.Contains(t, out, "| 1 | 30 | 30.0% | 30.1% | -0.1% |")
	assert.Contains(t, out, "| 2 | 18 | 18.0% | 17.6% | +0.4% |")
}

func TestMarkdownRendererEmpty(t *testing.T) {
	var buf strings.Builder
	err := NewMarkdownRenderer().Render(context.Background(), emptyResult(), &buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "No numeric data available.")
	assert.Contains(t, out, "## How to read the results", "explanatory sections stay")
	assert.NotContains(t, out, "## Top columns by deviation (MAD)")
	assert.NotContains(t, out, "## Overall digit distribution")
	assert.NotContains(t, out, "## Detailed digit breakdown")
}

func TestMarkdownRendererNilResult(t *testing.T) {
	var buf strings.Builder
	err := NewMarkdownRenderer().Render(context.Background(), nil, &buf)
	assert.Error(t, err)
}

func TestMarkdownRendererCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf strings.Builder
	err := NewMarkdownRenderer().Render(ctx, sampleResult(), &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}
