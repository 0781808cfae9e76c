package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_PassThrough(t *testing.T) {
	e := New()
	out, err := e.Render("backlog-mcp serve")
	require.NoError(t, err)
	assert.Equal(t, "backlog-mcp serve", out)
}

func TestRender_EnvAndData(t *testing.T) {
	t.Setenv("BACKLOG_TEST_DOMAIN", "example.backlog.com")

	e := New(map[string]interface{}{"Port": 8000}, map[string]interface{}{"Name": "gw"})

	out, err := e.Render(`{{ env "BACKLOG_TEST_DOMAIN" }}`)
	require.NoError(t, err)
	assert.Equal(t, "example.backlog.com", out)

	out, err = e.Render(`{{ .Name | upper }}:{{ .Port }}`)
	require.NoError(t, err)
	assert.Equal(t, "GW:8000", out)
}

func TestRender_Errors(t *testing.T) {
	e := New()

	_, err := e.Render(`{{ .Missing }}`)
	assert.Error(t, err)

	_, err = e.Render(`{{ unterminated`)
	assert.Error(t, err)
}

func TestRenderAllAndMap(t *testing.T) {
	e := New(map[string]interface{}{"Prefix": "bl_"})

	argv, err := e.RenderAll([]string{"serve", "--prefix", "{{ .Prefix }}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"serve", "--prefix", "bl_"}, argv)

	headers, err := e.RenderMap(map[string]string{"X-Prefix": "{{ .Prefix }}"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Prefix": "bl_"}, headers)

	_, err = e.RenderAll([]string{"{{ .Nope }}"})
	assert.ErrorContains(t, err, "index 0")
}

func TestMergeContexts(t *testing.T) {
	merged := MergeContexts(
		map[string]interface{}{"a": 1, "b": 1},
		map[string]interface{}{"b": 2},
	)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, merged)
}
