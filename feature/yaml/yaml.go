/*
Package yaml provides methods to parse feature.Metadata specifications
from YAML documents.
*/
package yaml

import (
	"fmt"
	"io/ioutil"

	"github.com/pbanos/copse/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
ReadMetadata takes a slice of bytes with a metadata specification in YML and
returns the feature.Metadata parsed from it or an error.
The YML is expected to be an object with the following properties:
  * label: the name of the column holding the 0/1 ground truth
  * features: an object with a property for each feature with its name and
    either a string value of 'continuous' for continuous features or a list
    of valid values for discrete features. Features keep the order in which
    they are declared.
  * defaults: an optional object with a property for each feature that
    has a value to use when a sample does not define one.
*/
func ReadMetadata(md []byte) (*feature.Metadata, error) {
	metadata := struct {
		Label    string
		Features yaml.MapSlice
		Defaults map[string]interface{}
	}{}
	err := yaml.Unmarshal(md, &metadata)
	if err != nil {
		return nil, fmt.Errorf("parsing yml metadata: %v", err)
	}
	if metadata.Features == nil {
		return nil, fmt.Errorf("metadata file has no feature information")
	}
	result := &feature.Metadata{Label: metadata.Label, Defaults: make(map[string]string)}
	for _, item := range metadata.Features {
		fn := fmt.Sprintf("%v", item.Key)
		switch values := item.Value.(type) {
		case string:
			if values != "continuous" {
				return nil, fmt.Errorf("invalid declaration %q for feature %s", values, fn)
			}
			result.Features = append(result.Features, feature.NewContinuousFeature(fn))
		case []interface{}:
			stringVs := []string{}
			for _, v := range values {
				stringVs = append(stringVs, fmt.Sprintf("%v", v))
			}
			result.Features = append(result.Features, feature.NewDiscreteFeature(fn, stringVs))
		default:
			return nil, fmt.Errorf("invalid feature declaration of type %T for feature %s", item.Value, fn)
		}
	}
	for fn, v := range metadata.Defaults {
		result.Defaults[fn] = fmt.Sprintf("%v", v)
	}
	err = result.Validate()
	if err != nil {
		return nil, err
	}
	return result, nil
}

/*
ReadMetadataFromFile takes a filepath string, reads its contents and uses
ReadMetadata to parse it and return the parsed metadata or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadMetadataFromFile(filepath string) (*feature.Metadata, error) {
	md, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading metadata yml file %s: %v", filepath, err)
	}
	metadata, err := ReadMetadata(md)
	if err != nil {
		err = fmt.Errorf("parsing metadata yml file %s: %v", filepath, err)
	}
	return metadata, err
}
