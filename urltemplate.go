package tilescene

import (
	"strconv"
	"strings"
)

// Template expands tile URL templates. Recognized tokens are {prefix},
// {Z}, {X}, {Y} and {S}; {S} picks one of Hosts per tile so requests are
// spread across hosts deterministically.
type Template struct {
	URL    string
	Hosts  []string
	Prefix string
}

func NewTemplate(url string, hosts ...string) Template {
	return Template{URL: url, Hosts: hosts}
}

func (t Template) IsZero() bool { return t.URL == "" }

// Expand returns the URL for key. Rows outside the world have no URL;
// columns wrap around the antimeridian.
func (t Template) Expand(key TileKey) (string, bool) {
	if t.URL == "" || key.Zoom < 0 {
		return "", false
	}
	span := 1 << key.Zoom
	if key.Row < 0 || key.Row >= span {
		return "", false
	}
	column := key.Column % span
	if column < 0 {
		column += span
	}

	pairs := []string{
		"{prefix}", t.Prefix,
		"{Z}", strconv.Itoa(key.Zoom),
		"{X}", strconv.Itoa(column),
		"{Y}", strconv.Itoa(key.Row),
	}
	if len(t.Hosts) > 0 {
		z := key.Zoom
		if z < 0 {
			z = -z
		}
		pairs = append(pairs, "{S}", t.Hosts[(z+key.Row+column)%len(t.Hosts)])
	}
	return strings.NewReplacer(pairs...).Replace(t.URL), true
}

// Suffix derives the URL of the index-th asset belonging to a tile URL: the
// extension is dropped, "_index" is appended to what remains and ext
// becomes the new extension. "http://h/15/1/2.json" with index 3 and ext
// "obj" gives "http://h/15/1/2_3.obj".
func Suffix(tileURL string, index int, ext string) string {
	bits := strings.Split(tileURL, ".")
	if len(bits) > 1 {
		bits = bits[:len(bits)-1]
	}
	bits[len(bits)-1] += "_" + strconv.Itoa(index)
	bits = append(bits, ext)
	return strings.Join(bits, ".")
}
