package template

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	fsys := fstest.MapFS{
		"shared/head.html": {Data: []byte(`<title>{{.Title}}</title>`)},
		"index.html":       {Data: []byte(`{{template "shared/head" .}}<h1>{{.Title}}</h1>`)},
		"notes.txt":        {Data: []byte(`ignored`)},
	}

	store, err := NewFS(fsys)
	require.Nil(t, err)

	require.True(t, store.Has("index"))
	assert.False(t, store.Has("notes"))
	assert.False(t, store.Has("shared/head"))

	var sb strings.Builder
	err = store.Render(&sb, "index", map[string]string{"Title": "Kiosk"})
	require.Nil(t, err)
	assert.Equal(t, `<title>Kiosk</title><h1>Kiosk</h1>`, sb.String())
}

func TestRenderUnknownPage(t *testing.T) {
	store, err := NewFS(fstest.MapFS{})
	require.Nil(t, err)

	var sb strings.Builder
	err = store.Render(&sb, "missing", nil)
	require.NotNil(t, err)
}
