/*
Package mongodataset provides a source and sink of passenger samples
that uses a MongoDB database as backend.
*/
package mongodataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Dataset is a collection of samples stored on MongoDB to which samples
can be added and from which samples can be sequentially read
*/
type Dataset interface {
	Count(context.Context) (int, error)
	Samples(context.Context) (dataset.Dataset, error)
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type mongodataset struct {
	session *mgo.Session
	md      *feature.Metadata
}

const (
	samplesCollectionName = "samples"
)

/*
Open takes a MongoDB database session and the metadata describing the
samples and returns a Dataset that works on the default database for
that session or an error if it fails to set it up.
*/
func Open(ctx context.Context, session *mgo.Session, md *feature.Metadata) (Dataset, error) {
	mds := &mongodataset{session, md}
	err := mds.ensureIndexes()
	if err != nil {
		return nil, err
	}
	return mds, nil
}

func (mds *mongodataset) Samples(ctx context.Context) (dataset.Dataset, error) {
	var samples dataset.Dataset
	count, err := mds.Count(ctx)
	if err == nil {
		samples = make(dataset.Dataset, 0, count)
	}
	sampleChan, errs := mds.Read(ctx)
	for sample := range sampleChan {
		samples = append(samples, sample)
	}
	err = <-errs
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (mds *mongodataset) Count(context.Context) (int, error) {
	return mds.query().Count()
}

func (mds *mongodataset) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(samples))
	for i, s := range samples {
		doc, err := docFromSample(mds.md, s)
		if err != nil {
			return 0, fmt.Errorf("sample #%d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	err := mds.samplesCollection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(samples), nil
}

func (mds *mongodataset) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	samples := make(chan dataset.Sample)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(samples)
		var doc bson.M
		var err error
		iter := mds.query().Sort("_id").Iter()
		defer iter.Close()
	loop:
		for iter.Next(&doc) {
			var s dataset.Sample
			s, err = sampleFromDoc(mds.md, doc)
			if err != nil {
				err = fmt.Errorf("document %v: %w", doc["_id"], err)
				break
			}
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			case samples <- s:
			}
			doc = nil
		}
		if err == nil {
			err = iter.Err()
		}
		if err != nil {
			errs <- err
		}
	}()
	return samples, errs
}

func (mds *mongodataset) ensureIndexes() error {
	names := make([]string, 0, len(mds.md.Features)+1)
	for _, f := range mds.md.Features {
		names = append(names, f.Name())
	}
	names = append(names, mds.md.Label)
	for _, fName := range names {
		if fName == "_id" {
			return fmt.Errorf("invalid feature name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(fName, ".$") {
			return fmt.Errorf("invalid feature name %q: contains reserved characters %q or %q", fName, ".", "$")
		}
	}
	index := mgo.Index{
		Key:        []string{mds.md.Label},
		Background: true,
		Sparse:     true,
	}
	return mds.samplesCollection().EnsureIndex(index)
}

func (mds *mongodataset) samplesCollection() *mgo.Collection {
	return mds.session.DB("").C(samplesCollectionName)
}

func (mds *mongodataset) query() *mgo.Query {
	return mds.samplesCollection().Find(bson.M{mds.md.Label: bson.M{"$ne": nil}})
}

func docFromSample(md *feature.Metadata, s dataset.Sample) (bson.M, error) {
	doc := make(bson.M, len(md.Features)+1)
	for _, f := range md.Features {
		value, err := s.ValueFor(f.Name())
		if err != nil {
			return nil, err
		}
		if df, ok := f.(*feature.DiscreteFeature); ok {
			doc[f.Name()] = df.Format(value)
		} else {
			doc[f.Name()] = value
		}
	}
	doc[md.Label] = s.Label()
	return doc, nil
}

/*
sampleFromDoc builds a sample out of a document. Missing or null
feature fields take the default in the metadata. Numeric fields are
taken as values or discrete codes, string fields are parsed with the
feature.
*/
func sampleFromDoc(md *feature.Metadata, doc bson.M) (dataset.Sample, error) {
	rawLabel, ok := doc[md.Label]
	if !ok || rawLabel == nil {
		return nil, fmt.Errorf("missing label %s", md.Label)
	}
	label, err := toFloat(rawLabel, nil)
	if err != nil {
		return nil, fmt.Errorf("label %s: %w", md.Label, err)
	}
	if label != 0 && label != 1 {
		return nil, fmt.Errorf("label %s must be 0 or 1, got %v", md.Label, label)
	}
	featureValues := make(map[string]float64, len(md.Features))
	for _, f := range md.Features {
		raw, ok := doc[f.Name()]
		var v float64
		if !ok || raw == nil || raw == "" {
			v, ok, err = md.Default(f)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("missing value for feature %s without default", f.Name())
			}
		} else {
			v, err = toFloat(raw, f)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %w", f.Name(), err)
			}
		}
		if err = f.Valid(v); err != nil {
			return nil, err
		}
		featureValues[f.Name()] = v
	}
	return dataset.NewSample(featureValues, int(label)), nil
}

func toFloat(raw interface{}, f feature.Feature) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		if f == nil {
			return feature.NewContinuousFeature("").Parse(v)
		}
		return f.Parse(v)
	}
	return 0, fmt.Errorf("unsupported value %v of type %T", raw, raw)
}
