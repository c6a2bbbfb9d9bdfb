package tilescene

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownStyle = errors.New("unknown style")
	ErrRasterStyle  = errors.New("raster style is drawn by the host map")
	ErrUnknownCity  = errors.New("unknown city")
)

type Config struct {
	Map    MapConfig        `yaml:"map"`
	Layer  LayerConfig      `yaml:"layer"`
	Cities []City           `yaml:"cities"`
	Styles map[string]Style `yaml:"styles"`
}

type MapConfig struct {
	Zoom      float64   `yaml:"zoom"`
	ZoomRange []float64 `yaml:"zoomRange,omitempty"`
}

type LayerConfig struct {
	Prefix          string   `yaml:"prefix"`
	Hosts           []string `yaml:"hosts,omitempty"`
	MaxActive       int      `yaml:"maxActive"`
	FixedDamping    bool     `yaml:"fixedDamping"`
	AppendOnlyDedup bool     `yaml:"appendOnlyDedup"`
	AssetCacheSize  int      `yaml:"assetCacheSize"`
	Parallelism     int      `yaml:"parallelism"`
}

// City centers and bounds are [lat, lon] pairs.
type City struct {
	ID     string       `yaml:"id"`
	Center [2]float64   `yaml:"center"`
	Zoom   float64      `yaml:"zoom,omitempty"`
	Bounds [][2]float64 `yaml:"bounds,omitempty"`
	Styles []string     `yaml:"styles,omitempty"`
}

func (c City) CenterLatLon() LatLon { return LatLon{Lat: c.Center[0], Lon: c.Center[1]} }

type Style struct {
	Type         string    `yaml:"type"`
	URL          URLSpec   `yaml:"url"`
	Texture      URLSpec   `yaml:"texture,omitempty"`
	Hosts        []string  `yaml:"hosts,omitempty"`
	ZoomRange    []float64 `yaml:"zoomRange,omitempty"`
	Wireframe    bool      `yaml:"wireframe"`
	Normalize    bool      `yaml:"normalize"`
	HeightColors bool      `yaml:"heightColors"`
}

// URLSpec is a URL template given either as a plain string, which uses
// the layer's hosts, or as a {url, hosts} mapping with its own hosts.
type URLSpec struct {
	Template string
	Hosts    []string
	OwnHosts bool
}

func (u *URLSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*u = URLSpec{Template: value.Value}
		return nil
	case yaml.MappingNode:
		var m struct {
			URL   string   `yaml:"url"`
			Hosts []string `yaml:"hosts"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*u = URLSpec{Template: m.URL, Hosts: m.Hosts, OwnHosts: true}
		return nil
	}
	return fmt.Errorf("line %d: url must be a string or a {url, hosts} mapping", value.Line)
}

func (u URLSpec) MarshalYAML() (any, error) {
	if !u.OwnHosts {
		return u.Template, nil
	}
	return map[string]any{"url": u.Template, "hosts": u.Hosts}, nil
}

func (u URLSpec) IsZero() bool { return u.Template == "" }

// StyleRef names a style either by its id in the config or by value.
type StyleRef struct {
	id    string
	style *Style
}

func StyleByID(id string) StyleRef  { return StyleRef{id: id} }
func StyleByValue(s Style) StyleRef { return StyleRef{style: &s} }
func (r StyleRef) String() string {
	if r.style != nil {
		return "<" + r.style.Type + " style>"
	}
	return r.id
}

// CityRef names a city either by its id in the config or by value.
type CityRef struct {
	id   string
	city *City
}

func CityByID(id string) CityRef { return CityRef{id: id} }
func CityByValue(c City) CityRef { return CityRef{city: &c} }

func LoadConfig(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	if c.Map.Zoom == 0 && len(c.Map.ZoomRange) == 2 {
		c.Map.Zoom = c.Map.ZoomRange[0]
	}
	c.Layer.Prefix = strings.TrimRight(c.Layer.Prefix, "/")
	for i := range c.Cities {
		c.Cities[i].ID = strings.TrimSpace(c.Cities[i].ID)
	}
}

func (c *Config) Validate() error {
	if n := len(c.Map.ZoomRange); n != 0 && n != 2 {
		return fmt.Errorf("map.zoomRange: want [min, max], got %d values", n)
	}
	if len(c.Map.ZoomRange) == 2 && c.Map.ZoomRange[0] > c.Map.ZoomRange[1] {
		return fmt.Errorf("map.zoomRange: min %v above max %v", c.Map.ZoomRange[0], c.Map.ZoomRange[1])
	}
	seen := make(map[string]struct{}, len(c.Cities))
	for i, city := range c.Cities {
		if city.ID == "" {
			return fmt.Errorf("cities[%d]: missing id", i)
		}
		if _, dup := seen[city.ID]; dup {
			return fmt.Errorf("cities[%d]: duplicate id %q", i, city.ID)
		}
		seen[city.ID] = struct{}{}
		if n := len(city.Bounds); n != 0 && n != 2 {
			return fmt.Errorf("city %s: bounds want two corners, got %d", city.ID, n)
		}
	}
	for id, s := range c.Styles {
		if n := len(s.ZoomRange); n != 0 && n != 2 {
			return fmt.Errorf("style %s: zoomRange want [min, max], got %d values", id, n)
		}
	}
	return nil
}

func (c *Config) Style(ref StyleRef) (Style, error) {
	if ref.style != nil {
		return *ref.style, nil
	}
	s, ok := c.Styles[ref.id]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, ref.id)
	}
	return s, nil
}

func (c *Config) City(ref CityRef) (City, error) {
	if ref.city != nil {
		return *ref.city, nil
	}
	city, ok := lo.Find(c.Cities, func(city City) bool { return city.ID == ref.id })
	if !ok {
		return City{}, fmt.Errorf("%w: %q", ErrUnknownCity, ref.id)
	}
	return city, nil
}

// ZoomRange returns the zoom limits for a style, falling back to the map's.
func (c *Config) ZoomRange(s Style) (zmin, zmax float64, ok bool) {
	r := c.Map.ZoomRange
	if len(s.ZoomRange) == 2 {
		r = s.ZoomRange
	}
	if len(r) != 2 {
		return 0, 0, false
	}
	return r[0], r[1], true
}

// Template resolves u against the layer prefix and hosts. Hosts
// set on the style override both.
func (c *Config) Template(u URLSpec, styleHosts []string) Template {
	hosts := c.Layer.Hosts
	if u.OwnHosts {
		hosts = u.Hosts
	}
	if len(styleHosts) > 0 {
		hosts = styleHosts
	}
	t := NewTemplate(u.Template, hosts...)
	t.Prefix = c.Layer.Prefix
	return t
}

// BuildContent creates the content for a style. Raster styles return
// ErrRasterStyle; unrecognized ones are logged and return ErrUnknownStyle.
func (c *Config) BuildContent(ref StyleRef, fetcher Fetcher, logger Logger) (Content, error) {
	s, err := c.Style(ref)
	if err != nil {
		logger.Warnf("style %s: %v", ref, err)
		return nil, err
	}
	switch s.Type {
	case "footprints":
		return NewFootprints(fetcher, FootprintOptions{
			URL:       c.Template(s.URL, s.Hosts),
			Wireframe: s.Wireframe,
		}), nil
	case "3d":
		assets, err := NewAssetCache(fetcher, c.Layer.AssetCacheSize)
		if err != nil {
			return nil, err
		}
		opts := ModelOptions{
			URL:          c.Template(s.URL, s.Hosts),
			Wireframe:    s.Wireframe,
			HeightColors: s.HeightColors,
			Normalize:    s.Normalize,
			Parallelism:  c.Layer.Parallelism,
		}
		if !s.Texture.IsZero() {
			opts.Texture = c.Template(s.Texture, s.Hosts)
		}
		return NewModels(fetcher, assets, opts), nil
	case "2d":
		return nil, fmt.Errorf("style %s: %w", ref, ErrRasterStyle)
	}
	logger.Warnf("style %s: unrecognized type %q, layer omitted", ref, s.Type)
	return nil, fmt.Errorf("%w: type %q", ErrUnknownStyle, s.Type)
}

func (c *Config) LayerOptions(name string, logger Logger) LayerOptions {
	return LayerOptions{
		Name:            name,
		Logger:          logger,
		Pipeline:        PipelineOptions{MaxActive: c.Layer.MaxActive},
		Render:          RenderOptions{FixedDamping: c.Layer.FixedDamping},
		AppendOnlyDedup: c.Layer.AppendOnlyDedup,
	}
}
