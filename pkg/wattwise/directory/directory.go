package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// Source supplies the owner and grid-zone identifier sets used to attribute
// synthesized workloads. The corpus builder fails fast when either set is
// empty, so implementations should surface emptiness rather than invent
// defaults.
type Source interface {
	Owners() []string
	Zones() []string
}

// Static is a fixed in-memory Source.
type Static struct {
	owners []string
	zones  []string
}

// NewStatic builds a Source from literal owner and zone sets.
func NewStatic(owners, zones []string) *Static {
	return &Static{owners: owners, zones: zones}
}

func (s *Static) Owners() []string { return s.owners }
func (s *Static) Zones() []string  { return s.zones }

// directoryFile is the YAML shape of an identity/zone directory file:
//
//	owners:
//	  - team-ml-platform
//	  - team-search
//	zones:
//	  - us-west-2
//	  - eu-central-1
type directoryFile struct {
	Owners []string `yaml:"owners"`
	Zones  []string `yaml:"zones"`
}

// LoadFromFile reads an identity/zone directory from a YAML file.
func LoadFromFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %v", err)
	}

	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %v", err)
	}

	klog.V(2).InfoS("Loaded identity/zone directory",
		"path", path,
		"owners", len(file.Owners),
		"zones", len(file.Zones))

	return NewStatic(file.Owners, file.Zones), nil
}
