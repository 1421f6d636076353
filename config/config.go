// Package config loads the composite and export settings from flags, a config
// file, LST_ environment variables and .env files through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"lst-tools/export"
	"lst-tools/geometry"
	"lst-tools/pipeline"
	"lst-tools/render"
	"lst-tools/scaling"
)

// EnvPrefix prefixes every environment variable, e.g. LST_EXPORT_SCALE.
const EnvPrefix = "LST"

// Expression is a band-math transform given as OUTPUT=EXPRESSION.
type Expression struct {
	Output string
	Source string
}

// FunctionName is the session name the expression is registered under.
func (e Expression) FunctionName() string {
	return scaling.ExpressionPrefix + e.Output
}

type Config struct {
	CatalogDir  string
	CatalogID   string
	Start       time.Time
	End         time.Time
	Point       geometry.Point
	Region      geometry.Geometry
	Reducer     string
	Workers     int
	StrictBands bool
	Expressions []Expression

	Vis      render.VisParams
	Map      render.MapView
	MapLayer string

	Export   export.Request
	DriveDir string
	TasksDB  string
	Backoff  export.Backoff
}

// SetDefaults installs the defaults: Landsat 9 Collection 2 Level-2 over
// Northampton, MA for 1-4 July 2024.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalog.dir", "data/catalog")
	v.SetDefault("catalog.id", "LANDSAT/LC09/C02/T1_L2")
	v.SetDefault("date.start", "2024-07-01")
	v.SetDefault("date.end", "2024-07-04")
	v.SetDefault("point", "-72.63042,42.32882")
	v.SetDefault("clip", "-72.74243,42.28324,-72.58300,42.37614")
	v.SetDefault("region", "")
	v.SetDefault("reducer", "mean")
	v.SetDefault("numWorkers", 8)
	v.SetDefault("strictBands", false)
	v.SetDefault("expr", []string{})

	vis := render.DefaultVisParams()
	v.SetDefault("vis.band", vis.Bands[0])
	v.SetDefault("vis.min", vis.Min)
	v.SetDefault("vis.max", vis.Max)
	v.SetDefault("vis.palette", vis.Palette)

	v.SetDefault("map.center", "-72.6480632,42.3207333")
	v.SetDefault("map.zoom", 13)
	v.SetDefault("map.layer", "Temperature")

	req := export.DefaultRequest()
	v.SetDefault("export.description", req.Description)
	v.SetDefault("export.scale", req.Scale)
	v.SetDefault("export.format", string(req.Format))
	v.SetDefault("export.destination", req.Destination)
	v.SetDefault("export.cellLevel", export.DefaultCellLevel)

	v.SetDefault("drive.dir", "data/drive")
	v.SetDefault("tasks.db", "data/tasks.db")

	backoff := export.DefaultBackoff()
	v.SetDefault("retry.max", backoff.MaxRetries)
	v.SetDefault("retry.initial", backoff.InitialInterval.String())
	v.SetDefault("retry.maxInterval", backoff.MaxInterval.String())
}

// BindEnv makes every key readable from LST_ variables, dots becoming
// underscores: export.scale is LST_EXPORT_SCALE.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; with no arguments ./.env is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logrus.Debugf("No env file %s", f)
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
		logrus.Debugf("Loaded env file %s", f)
	}
	return nil
}

// Load reads and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		CatalogDir:  v.GetString("catalog.dir"),
		CatalogID:   v.GetString("catalog.id"),
		Reducer:     v.GetString("reducer"),
		Workers:     v.GetInt("numWorkers"),
		StrictBands: v.GetBool("strictBands"),
		MapLayer:    v.GetString("map.layer"),
		DriveDir:    v.GetString("drive.dir"),
		TasksDB:     v.GetString("tasks.db"),
	}

	var err error
	if cfg.Start, err = pipeline.ParseDate(v.GetString("date.start")); err != nil {
		return nil, err
	}
	if cfg.End, err = pipeline.ParseDate(v.GetString("date.end")); err != nil {
		return nil, err
	}

	point, err := Floats(v.Get("point"), 2)
	if err != nil {
		return nil, fmt.Errorf("point: %w", err)
	}
	cfg.Point = geometry.Point{Lng: point[0], Lat: point[1]}

	if cfg.Region, err = region(v); err != nil {
		return nil, err
	}

	for _, raw := range v.GetStringSlice("expr") {
		e, err := ParseExpression(raw)
		if err != nil {
			return nil, err
		}
		cfg.Expressions = append(cfg.Expressions, e)
	}

	cfg.Vis = render.VisParams{
		Bands:   []string{v.GetString("vis.band")},
		Min:     v.GetFloat64("vis.min"),
		Max:     v.GetFloat64("vis.max"),
		Palette: v.GetStringSlice("vis.palette"),
	}

	center, err := Floats(v.Get("map.center"), 2)
	if err != nil {
		return nil, fmt.Errorf("map.center: %w", err)
	}
	cfg.Map = render.MapView{Center: geometry.Point{Lng: center[0], Lat: center[1]}, Zoom: v.GetInt("map.zoom")}

	format, err := export.ParseFormat(v.GetString("export.format"))
	if err != nil {
		return nil, err
	}
	cfg.Export = export.Request{
		Description: v.GetString("export.description"),
		Scale:       v.GetFloat64("export.scale"),
		Destination: v.GetString("export.destination"),
		Format:      format,
		CellLevel:   v.GetInt("export.cellLevel"),
	}
	if cfg.Export.Region, err = geometry.Encode(cfg.Region); err != nil {
		return nil, err
	}

	cfg.Backoff = export.Backoff{
		MaxRetries:      v.GetInt("retry.max"),
		InitialInterval: v.GetDuration("retry.initial"),
		MaxInterval:     v.GetDuration("retry.maxInterval"),
	}
	return cfg, nil
}

// region is the clip and export region: a GeoJSON file when given, otherwise
// the clip box.
func region(v *viper.Viper) (geometry.Geometry, error) {
	if path := v.GetString("region"); path != "" {
		return geometry.ReadGeoJSONFile(path)
	}
	clip, err := Floats(v.Get("clip"), 4)
	if err != nil {
		return nil, fmt.Errorf("clip: %w", err)
	}
	box := geometry.BBox{West: clip[0], South: clip[1], East: clip[2], North: clip[3]}
	if err := box.Validate(); err != nil {
		return nil, err
	}
	return box, nil
}

// Recipe is the composite described by the configuration.
func (c *Config) Recipe() pipeline.Recipe {
	functions := []string{scaling.FunctionName}
	for _, e := range c.Expressions {
		functions = append(functions, e.FunctionName())
	}
	return pipeline.Recipe{
		CatalogID: c.CatalogID,
		Start:     c.Start,
		End:       c.End,
		Filter:    c.Point,
		Functions: functions,
		Reducer:   c.Reducer,
		Region:    c.Region,
		Vis:       c.Vis,
	}
}

// ParseExpression parses OUTPUT=EXPRESSION.
func ParseExpression(s string) (Expression, error) {
	output, source, ok := strings.Cut(s, "=")
	output, source = strings.TrimSpace(output), strings.TrimSpace(source)
	if !ok || output == "" || source == "" {
		return Expression{}, fmt.Errorf("expression %q is not OUTPUT=EXPRESSION", s)
	}
	return Expression{Output: output, Source: source}, nil
}

// Floats reads n numbers from a comma separated string or a list, the two
// shapes a coordinate list takes in flags, env and YAML.
func Floats(value interface{}, n int) ([]float64, error) {
	var items []interface{}
	switch t := value.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			items = append(items, strings.TrimSpace(part))
		}
	case []string:
		for _, part := range t {
			items = append(items, part)
		}
	case []float64:
		for _, f := range t {
			items = append(items, f)
		}
	default:
		var err error
		if items, err = cast.ToSliceE(value); err != nil {
			return nil, err
		}
	}
	if len(items) != n {
		return nil, fmt.Errorf("need %d numbers, got %d", n, len(items))
	}
	out := make([]float64, n)
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
