package tilescene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateExpand(t *testing.T) {
	tmpl := NewTemplate("{prefix}/{S}/{Z}/{X}/{Y}.json", "a", "b", "c")
	tmpl.Prefix = "http://tiles.test"

	url, ok := tmpl.Expand(TileKey{Column: 5, Row: 7, Zoom: 4})
	assert.True(t, ok)
	// (4 + 7 + 5) % 3 = 1
	assert.Equal(t, "http://tiles.test/b/4/5/7.json", url)
}

func TestTemplateWrapsColumns(t *testing.T) {
	tmpl := NewTemplate("{Z}/{X}/{Y}")

	url, ok := tmpl.Expand(TileKey{Column: -1, Row: 0, Zoom: 2})
	assert.True(t, ok)
	assert.Equal(t, "2/3/0", url)

	url, _ = tmpl.Expand(TileKey{Column: 9, Row: 1, Zoom: 2})
	assert.Equal(t, "2/1/1", url)
}

func TestTemplateRejectsRowsOutsideWorld(t *testing.T) {
	tmpl := NewTemplate("{Z}/{X}/{Y}")
	_, ok := tmpl.Expand(TileKey{Column: 0, Row: 4, Zoom: 2})
	assert.False(t, ok)
	_, ok = tmpl.Expand(TileKey{Column: 0, Row: -1, Zoom: 2})
	assert.False(t, ok)
	_, ok = Template{}.Expand(TileKey{})
	assert.False(t, ok)
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "http://h/15/1/2_3.obj", Suffix("http://h/15/1/2.json", 3, "obj"))
	assert.Equal(t, "http://tiles.test/15/1/2_0.jpg", Suffix("http://tiles.test/15/1/2.json", 0, "jpg"))
	assert.Equal(t, "tile_1.obj", Suffix("tile", 1, "obj"))
}
