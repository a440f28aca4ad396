// Package mcdata is the read-only lookup service for entity type metadata and
// per-version protocol features.
package mcdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	e "github.com/tutumagi/mcentity/errors"
)

// ErrUnknownVersionCode no feature data for the requested protocol version
const ErrUnknownVersionCode = "Data_001"

// ErrDecodeCode the data file does not match the expected layout
const ErrDecodeCode = "Data_002"

// EntityType classification metadata of an entity type code
type EntityType struct {
	ID          int32    `mapstructure:"id"`
	InternalID  int32    `mapstructure:"internalId"`
	Name        string   `mapstructure:"name"`
	DisplayName string   `mapstructure:"displayName"`
	Type        string   `mapstructure:"type"`
	Category    string   `mapstructure:"category"`
	Width       *float64 `mapstructure:"width"`
	Height      *float64 `mapstructure:"height"`
}

//go:generate mockgen -destination=mocks/registry.go -package=mocks github.com/tutumagi/mcentity/mcdata Registry

// Registry answers type and feature queries for the negotiated version
type Registry interface {
	EntityByID(id int32) (*EntityType, bool)
	SupportFeature(name string) bool
}

// Feature a named capability active over an inclusive version range
type Feature struct {
	Name     string   `mapstructure:"name"`
	Versions []string `mapstructure:"versions"`
}

// Data is a Registry bound to one protocol version
type Data struct {
	Version  string
	entities map[int32]*EntityType
	features map[string]struct{}
}

// New builds a Registry from already resolved data
func New(version string, types []*EntityType, features ...string) *Data {
	d := &Data{
		Version:  version,
		entities: make(map[int32]*EntityType, len(types)),
		features: make(map[string]struct{}, len(features)),
	}
	for _, t := range types {
		d.entities[t.ID] = t
	}
	for _, f := range features {
		d.features[f] = struct{}{}
	}
	return d
}

// Load reads `entities` and `features` from v and resolves the features
// active at version
func Load(v *viper.Viper, version string) (*Data, error) {
	var types []*EntityType
	if err := v.UnmarshalKey("entities", &types); err != nil {
		return nil, e.NewError(fmt.Errorf("decode entities: %w", err), ErrDecodeCode)
	}

	var all []Feature
	if err := v.UnmarshalKey("features", &all); err != nil {
		return nil, e.NewError(fmt.Errorf("decode features: %w", err), ErrDecodeCode)
	}

	if _, err := parseVersion(version); err != nil {
		return nil, e.NewError(err, ErrUnknownVersionCode)
	}

	active := make([]string, 0, len(all))
	for _, f := range all {
		in, err := f.activeAt(version)
		if err != nil {
			return nil, e.NewError(fmt.Errorf("feature %s: %w", f.Name, err), ErrDecodeCode)
		}
		if in {
			active = append(active, f.Name)
		}
	}

	return New(version, types, active...), nil
}

// LoadFile reads a yaml/json/toml data file, see Load
func LoadFile(path string, version string) (*Data, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, e.NewError(fmt.Errorf("read %s: %w", path, err), ErrDecodeCode)
	}
	return Load(v, version)
}

// EntityByID implements Registry
func (d *Data) EntityByID(id int32) (*EntityType, bool) {
	t, ok := d.entities[id]
	return t, ok
}

// SupportFeature implements Registry
func (d *Data) SupportFeature(name string) bool {
	_, ok := d.features[name]
	return ok
}

// Features names of the active features
func (d *Data) Features() []string {
	r := make([]string, 0, len(d.features))
	for f := range d.features {
		r = append(r, f)
	}
	return r
}

func (f Feature) activeAt(version string) (bool, error) {
	if len(f.Versions) == 0 || len(f.Versions) > 2 || f.Versions[0] == "" {
		return false, fmt.Errorf("version range must be [from] or [from, to]")
	}
	from, to := f.Versions[0], ""
	if len(f.Versions) == 2 {
		to = f.Versions[1]
	}
	if to == "" || to == "latest" {
		c, err := compareVersions(version, from)
		return c >= 0, err
	}

	lo, err := compareVersions(version, from)
	if err != nil {
		return false, err
	}
	hi, err := compareVersions(version, to)
	if err != nil {
		return false, err
	}
	return lo >= 0 && hi <= 0, nil
}

func parseVersion(version string) ([]int, error) {
	if version == "" {
		return nil, fmt.Errorf("empty version")
	}
	parts := strings.Split(version, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q", version)
		}
		nums[i] = n
	}
	return nums, nil
}

// compareVersions compares dotted versions, missing parts count as 0
func compareVersions(a, b string) (int, error) {
	av, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseVersion(b)
	if err != nil {
		return 0, err
	}

	for i := 0; i < len(av) || i < len(bv); i++ {
		var x, y int
		if i < len(av) {
			x = av[i]
		}
		if i < len(bv) {
			y = bv[i]
		}
		if x != y {
			if x < y {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, nil
}
