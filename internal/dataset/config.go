// Package dataset maps dataset names to conversion jobs and runs them.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"luacsv/internal/luatable"
	"luacsv/internal/project"
)

// Kind selects how a dataset is parsed and projected.
type Kind string

const (
	KindFlat   Kind = "flat"
	KindNested Kind = "nested"
	KindHalo   Kind = "halo"
	KindSkill  Kind = "skill"
)

func (k Kind) valid() bool {
	switch k {
	case KindFlat, KindNested, KindHalo, KindSkill:
		return true
	}
	return false
}

// DefaultConfigFile is looked up in the working directory when no path is
// given.
const DefaultConfigFile = "luacsv.yaml"

type Config struct {
	Dirs       Dirs               `yaml:"dirs"`
	DateSuffix bool               `yaml:"date_suffix"`
	FailFast   bool               `yaml:"fail_fast"`
	Outputs    Outputs            `yaml:"outputs"`
	Skip       []string           `yaml:"skip"`
	Datasets   map[string]Dataset `yaml:"datasets"`
	Publish    Publish            `yaml:"publish"`
}

type Dirs struct {
	Lua    string `yaml:"lua"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type Outputs struct {
	XLSX    bool `yaml:"xlsx"`
	Parquet bool `yaml:"parquet"`
}

// Dataset overrides the default handling of one dataset. Array, Parent,
// Child and Headers only apply to nested datasets.
type Dataset struct {
	Kind    Kind     `yaml:"kind"`
	Mode    string   `yaml:"mode"`
	Repair  bool     `yaml:"repair"`
	Array   string   `yaml:"array"`
	Parent  []string `yaml:"parent"`
	Child   []string `yaml:"child"`
	Headers []string `yaml:"headers"`
}

type Publish struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// Enabled reports whether outputs should be uploaded.
func (p Publish) Enabled() bool { return p.Bucket != "" }

// Defaults returns the built-in configuration: the lua/format/output layout,
// the two nested-array datasets and the dedicated skill and halo datasets,
// which batch discovery skips.
func Defaults() *Config {
	return &Config{
		Dirs: Dirs{Lua: "lua", Format: "format", Output: "output"},
		Skip: []string{"cfgskill", "cfgcfgHalo"},
		Datasets: map[string]Dataset{
			"cfgCfgSubTalentSkillPool": {
				Kind:    KindNested,
				Array:   "ids",
				Parent:  []string{"id"},
				Child:   []string{"index", "id"},
				Headers: []string{"id", "index", "skill_id"},
			},
			"cfgCfgCardRoleAbilityPool": {
				Kind:    KindNested,
				Array:   "arr",
				Parent:  []string{"id", "icon"},
				Child:   []string{"index", "remarks", "desc"},
				Headers: []string{"id", "icon", "index", "remarks", "desc"},
			},
			"cfgskill":   {Kind: KindSkill, Mode: "tolerant"},
			"cfgcfgHalo": {Kind: KindHalo},
		},
		Publish: Publish{UseSSL: true},
	}
}

// Load reads the YAML file at path over Defaults. ${VAR} and
// ${VAR:-default} references are expanded with getenv first. When path is
// empty, LUACSV_CONFIG and then ./luacsv.yaml are tried; with neither
// present the defaults are returned.
func Load(path string, getenv func(string) string) (*Config, error) {
	path, err := resolveConfigPath(path, getenv)
	if err != nil {
		return nil, err
	}
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	data = interpolateEnv(data, getenv)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	if envPath := getenv("LUACSV_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("LUACSV_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		value := getenv(string(parts[1]))
		if value == "" && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate collects every configuration problem into one error.
func (c *Config) Validate() error {
	var errs []string

	if c.Dirs.Lua == "" {
		errs = append(errs, "dirs.lua is required")
	}
	if c.Dirs.Format == "" {
		errs = append(errs, "dirs.format is required")
	}
	if c.Dirs.Output == "" {
		errs = append(errs, "dirs.output is required")
	}

	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		ds := c.Datasets[name]
		kind := ds.kind()
		if !kind.valid() {
			errs = append(errs, fmt.Sprintf("datasets.%s: unknown kind %q (must be flat, nested, halo or skill)", name, ds.Kind))
		}
		if _, err := luatable.ParseMode(ds.Mode); err != nil {
			errs = append(errs, fmt.Sprintf("datasets.%s: %v", name, err))
		}
		if kind != KindNested {
			continue
		}
		spec := ds.nestedSpec()
		if err := spec.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("datasets.%s: %v", name, strings.ReplaceAll(err.Error(), "\n", "; ")))
		}
		if len(ds.Headers) > 0 && len(ds.Headers) != spec.Width() {
			errs = append(errs, fmt.Sprintf("datasets.%s: %d headers for %d parent+child fields", name, len(ds.Headers), spec.Width()))
		}
	}

	if c.Publish.Enabled() && c.Publish.Endpoint == "" {
		errs = append(errs, "publish.endpoint is required when publish.bucket is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (d Dataset) kind() Kind {
	if d.Kind == "" {
		return KindFlat
	}
	return d.Kind
}

func (d Dataset) nestedSpec() project.NestedSpec {
	return project.NestedSpec{Array: d.Array, Parent: d.Parent, Child: d.Child}
}

// Skipped reports whether batch discovery leaves name out.
func (c *Config) Skipped(name string) bool {
	return slices.Contains(c.Skip, name)
}

// Job is the resolved plan for converting one dataset.
type Job struct {
	Name   string
	Kind   Kind
	Mode   luatable.Mode
	Repair bool
	Input  string
	// Header is fixed for nested and halo jobs; flat and skill jobs read it
	// from HeaderFile.
	Header     []string
	HeaderFile string
	Nested     project.NestedSpec
}

// Job resolves name into a conversion job. Names without an entry in
// Datasets are flat datasets decoded in generic mode.
func (c *Config) Job(name string) (Job, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return Job{}, fmt.Errorf("invalid dataset name %q", name)
	}
	ds := c.Datasets[name]
	job := Job{
		Name:   name,
		Kind:   ds.kind(),
		Repair: ds.Repair,
		Input:  filepath.Join(c.Dirs.Lua, name+".lua.txt"),
	}

	mode := ds.Mode
	if mode == "" && job.Kind == KindSkill {
		mode = luatable.ModeTolerant.String()
	}
	m, err := luatable.ParseMode(mode)
	if err != nil {
		return Job{}, fmt.Errorf("dataset %s: %w", name, err)
	}
	job.Mode = m

	switch job.Kind {
	case KindFlat, KindSkill:
		job.HeaderFile = headerFile(c.Dirs.Format, name)
	case KindNested:
		job.Nested = ds.nestedSpec()
		if err := job.Nested.Validate(); err != nil {
			return Job{}, fmt.Errorf("dataset %s: %w", name, err)
		}
		job.Header = ds.Headers
		if len(job.Header) == 0 {
			job.Header = append(slices.Clone(ds.Parent), ds.Child...)
		}
	case KindHalo:
		job.Header = project.HaloHeader()
	default:
		return Job{}, fmt.Errorf("dataset %s: unknown kind %q", name, job.Kind)
	}
	return job, nil
}
