package ai

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// classesFile mirrors the `names` key of a YOLOv5 dataset yaml. Both the list
// form and the {index: name} map form are accepted.
type classesFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadClassNames reads the class-index-to-name mapping shipped with the weights.
func LoadClassNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read class names %s", path)
	}
	return ParseClassNames(data)
}

// ParseClassNames decodes the `names` entry of a dataset yaml.
func ParseClassNames(data []byte) ([]string, error) {
	var file classesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse class names")
	}

	switch file.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := file.Names.Decode(&names); err != nil {
			return nil, errors.Wrap(err, "failed to decode class list")
		}
		return names, nil

	case yaml.MappingNode:
		var byIndex map[int]string
		if err := file.Names.Decode(&byIndex); err != nil {
			return nil, errors.Wrap(err, "failed to decode class map")
		}
		indices := make([]int, 0, len(byIndex))
		for idx := range byIndex {
			if idx < 0 {
				return nil, errors.Errorf("negative class index %d", idx)
			}
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		names := make([]string, 0, len(indices))
		if len(indices) > 0 {
			names = make([]string, indices[len(indices)-1]+1)
		}
		for _, idx := range indices {
			names[idx] = byIndex[idx]
		}
		return names, nil

	default:
		return nil, errors.New("class names file has no `names` entry")
	}
}
