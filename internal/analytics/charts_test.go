package analytics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
)

func TestRenderCharts_WithData(t *testing.T) {
	var buf bytes.Buffer
	err := RenderCharts(&buf, []model.TopQuery{
		{Query: "What is X?", Count: 2},
		{Query: "Who wrote Y?", Count: 1},
	})
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "<html")
	require.Contains(t, out, "What is X?")
	require.Contains(t, out, "echarts")
}

func TestRenderCharts_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCharts(&buf, nil))
	require.NotContains(t, buf.String(), "What is X?")
}
