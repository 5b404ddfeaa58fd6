package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/urbansight/geocore/internal/cityrank"
)

// cityFixture is the on-disk shape of a city metrics file.
type cityFixture struct {
	Cities []cityrank.CityMetrics `yaml:"cities"`
}

// LoadCityMetrics reads a YAML fixture of per-city metrics for the city
// comparison commands.
func LoadCityMetrics(path string) ([]cityrank.CityMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read city fixture %s", path)
	}
	var fixture cityFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse city fixture %s", path)
	}
	if len(fixture.Cities) == 0 {
		return nil, eris.Errorf("dataset: city fixture %s has no cities", path)
	}
	return fixture.Cities, nil
}
