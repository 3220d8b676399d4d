package feature

import "fmt"

/*
Metadata describes the features available on a dataset, the name of the
label column holding the ground truth (0 or 1) and the textual values used
to fill in samples that do not define a feature.
*/
type Metadata struct {
	Label    string
	Features []Feature
	Defaults map[string]string
}

/*
Feature takes a name and returns the feature with that name and true, or nil
and false if the metadata does not define it.
*/
func (md *Metadata) Feature(name string) (Feature, bool) {
	for _, f := range md.Features {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

/*
Default takes a feature and returns its default value and true, or zero and
false when no default is defined for it. An error is returned if the default
cannot be parsed by the feature.
*/
func (md *Metadata) Default(f Feature) (float64, bool, error) {
	s, ok := md.Defaults[f.Name()]
	if !ok {
		return 0, false, nil
	}
	v, err := f.Parse(s)
	if err != nil {
		return 0, false, fmt.Errorf("default for feature %s: %w", f.Name(), err)
	}
	return v, true, nil
}

// Validate checks the metadata is usable.
func (md *Metadata) Validate() error {
	if md.Label == "" {
		return fmt.Errorf("metadata has no label")
	}
	if len(md.Features) == 0 {
		return fmt.Errorf("metadata has no feature information")
	}
	seen := make(map[string]bool)
	for _, f := range md.Features {
		if f.Name() == md.Label {
			return fmt.Errorf("label %s cannot also be a feature", md.Label)
		}
		if seen[f.Name()] {
			return fmt.Errorf("feature %s is defined twice", f.Name())
		}
		seen[f.Name()] = true
		if _, _, err := md.Default(f); err != nil {
			return err
		}
	}
	for name := range md.Defaults {
		if !seen[name] {
			return fmt.Errorf("default given for unknown feature %s", name)
		}
	}
	return nil
}
