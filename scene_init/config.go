package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/splat-prep/camerarig"
	"github.com/unixpickle/splat-prep/scene"
	"gopkg.in/yaml.v3"
)

const (
	LayoutFibonacci = "fibonacci"
	LayoutRing      = "ring"
)

// Config holds every scene_init option. The YAML keys match the
// flag names.
type Config struct {
	PLY       string        `yaml:"ply"`
	OutDir    string        `yaml:"out-dir"`
	Views     int           `yaml:"views"`
	Radii     FloatListFlag `yaml:"radii"`
	Center    VectorFlag    `yaml:"center"`
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
	Layout    string        `yaml:"layout"`
	TestEvery int           `yaml:"test-every"`
	Workers   int           `yaml:"workers"`
	Verbose   bool          `yaml:"verbose"`

	ConfigPath string `yaml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Views:  60,
		Radii:  FloatListFlag{Values: []float64{3, 6}},
		Width:  512,
		Height: 256,
		Layout: LayoutFibonacci,
	}
}

func (c *Config) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.PLY, "ply", c.PLY, "input point cloud (.ply or .pcd)")
	fs.StringVar(&c.OutDir, "out-dir", c.OutDir, "output scene directory")
	fs.IntVar(&c.Views, "views", c.Views, "number of view directions")
	fs.Var(&c.Radii, "radii", "camera distances, as 'r1,r2,...'")
	fs.Var(&c.Center, "center", "point the cameras look at, as 'x,y,z'")
	fs.IntVar(&c.Width, "width", c.Width, "image width")
	fs.IntVar(&c.Height, "height", c.Height, "image height")
	fs.StringVar(&c.Layout, "layout", c.Layout, "view layout: "+LayoutFibonacci+" or "+LayoutRing)
	fs.IntVar(&c.TestEvery, "test-every", c.TestEvery,
		"hold out every k-th view for testing (0 uses all views for both)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "views rendered at once (0 for one per CPU)")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "enable debug logging")
	fs.StringVar(&c.ConfigPath, "config", c.ConfigPath, "YAML file with default option values")
}

// LoadYAML overwrites the options present in a YAML file.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.PLY == "" || c.OutDir == "" {
		return errors.New("must specify -ply and -out-dir")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid image size %dx%d", c.Width, c.Height)
	}
	if _, err := c.layout(); err != nil {
		return err
	}
	if err := c.Split().Validate(); err != nil {
		return err
	}
	return c.RigConfig().Validate()
}

func (c *Config) layout() (camerarig.DirectionGen, error) {
	switch c.Layout {
	case LayoutFibonacci:
		return camerarig.FibonacciSphere{}, nil
	case LayoutRing:
		return camerarig.NewYRing(), nil
	}
	return nil, errors.Errorf("unknown layout: %s", c.Layout)
}

func (c *Config) Split() scene.Split {
	return scene.Split{TestEvery: c.TestEvery}
}

func (c *Config) RigConfig() *camerarig.RigConfig {
	layout, _ := c.layout()
	up := camerarig.YUp
	return &camerarig.RigConfig{
		Views:  c.Views,
		Radii:  c.Radii.Values,
		Center: c.Center.Value,
		Layout: layout,
		Up:     &up,
	}
}

// RadiiString formats the radii as a bracketed list.
func (c *Config) RadiiString() string {
	parts := make([]string, len(c.Radii.Values))
	for i, r := range c.Radii.Values {
		s := strconv.FormatFloat(r, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParseConfig reads the command-line options.
//
// If -config is passed, the YAML file replaces the defaults and the
// arguments are parsed again, so flags given explicitly take
// precedence over the file.
func ParseConfig(name string, args []string, output io.Writer) (*Config, error) {
	newFlagSet := func(c *Config) *flag.FlagSet {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(output)
		c.AddFlags(fs)
		fs.Usage = func() {
			fmt.Fprintf(output, "Usage: %s -ply <cloud.ply> -out-dir <scene> [flags]\n\n", name)
			fmt.Fprintln(output, "Flags:")
			fs.PrintDefaults()
		}
		return fs
	}

	cfg := DefaultConfig()
	fs := newFlagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(fs.Args()) != 0 {
		fs.Usage()
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	if cfg.ConfigPath != "" {
		configPath := cfg.ConfigPath
		cfg = DefaultConfig()
		if err := cfg.LoadYAML(configPath); err != nil {
			return nil, err
		}
		if err := newFlagSet(cfg).Parse(args); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
