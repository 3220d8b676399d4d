package sqldataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
)

/*
Set is a collection of samples stored on a database to which
samples can be written and from which they can be read.

Its Write method takes a slice of samples and stores them,
returning the number of samples written and an error if not
all could be written.

Its Read method streams the stored samples in insertion order
until the context is done, reporting any error on the returned
error channel.

Its Dataset method reads all the stored samples into a
dataset.Dataset.
*/
type Set interface {
	Count(context.Context) (int, error)
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
	Dataset(context.Context) (dataset.Dataset, error)
}

type sqlSet struct {
	db      Adapter
	md      *feature.Metadata
	columns []string
}

/*
OpenSet takes an Adapter to a db backend and the metadata describing the
samples and returns a Set backed by the given adapter or an error.

This function expects the adapter to have the samples table already created.
*/
func OpenSet(ctx context.Context, dbAdapter Adapter, md *feature.Metadata) (Set, error) {
	ss := &sqlSet{db: dbAdapter, md: md}
	err := ss.initColumns()
	if err != nil {
		return nil, err
	}
	_, err = ss.db.CountSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening samples table: %v", err)
	}
	return ss, nil
}

/*
CreateSet takes an Adapter and the metadata describing the samples and
returns a Set backed by the given adapter or an error.

This function will ensure that the samples table is created on the database.
*/
func CreateSet(ctx context.Context, dbAdapter Adapter, md *feature.Metadata) (Set, error) {
	ss := &sqlSet{db: dbAdapter, md: md}
	err := ss.initColumns()
	if err != nil {
		return nil, err
	}
	err = ss.db.CreateSampleTable(ctx, ss.columns)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *sqlSet) initColumns() error {
	ss.columns = make([]string, 0, len(ss.md.Features)+1)
	for _, f := range ss.md.Features {
		c, err := ss.db.ColumnName(f.Name())
		if err != nil {
			return err
		}
		ss.columns = append(ss.columns, c)
	}
	c, err := ss.db.ColumnName(ss.md.Label)
	if err != nil {
		return err
	}
	ss.columns = append(ss.columns, c)
	return nil
}

func (ss *sqlSet) Count(ctx context.Context) (int, error) {
	return ss.db.CountSamples(ctx)
}

func (ss *sqlSet) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	rows := make([][]interface{}, 0, len(samples))
	for i, s := range samples {
		row := make([]interface{}, 0, len(ss.columns))
		for _, f := range ss.md.Features {
			v, err := s.ValueFor(f.Name())
			if err != nil {
				return 0, fmt.Errorf("sample #%d: %w", i, err)
			}
			row = append(row, v)
		}
		row = append(row, float64(s.Label()))
		rows = append(rows, row)
	}
	return ss.db.AddSamples(ctx, rows, ss.columns)
}

func (ss *sqlSet) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error, 1)
	go func() {
		defer close(errStream)
		defer close(sampleStream)
		err := ss.db.IterateOnSamples(ctx, ss.columns, func(n int, values []sql.NullFloat64) (bool, error) {
			s, err := ss.sample(values)
			if err != nil {
				return false, fmt.Errorf("row #%d: %w", n, err)
			}
			if s == nil {
				return true, nil
			}
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case sampleStream <- s:
			}
			return true, nil
		})
		if err != nil {
			errStream <- err
		}
	}()
	return sampleStream, errStream
}

func (ss *sqlSet) Dataset(ctx context.Context) (dataset.Dataset, error) {
	ds := dataset.Dataset{}
	samples, errs := ss.Read(ctx)
	for s := range samples {
		ds = append(ds, s)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return ds, nil
}

func (ss *sqlSet) sample(values []sql.NullFloat64) (dataset.Sample, error) {
	label := values[len(values)-1]
	if !label.Valid {
		return nil, nil
	}
	if label.Float64 != 0 && label.Float64 != 1 {
		return nil, fmt.Errorf("label %s must be 0 or 1, got %v", ss.md.Label, label.Float64)
	}
	featureValues := make(map[string]float64, len(ss.md.Features))
	for i, f := range ss.md.Features {
		v := values[i].Float64
		if !values[i].Valid || math.IsNaN(v) {
			var ok bool
			var err error
			v, ok, err = ss.md.Default(f)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("missing value for feature %s without default", f.Name())
			}
		}
		if err := f.Valid(v); err != nil {
			return nil, err
		}
		featureValues[f.Name()] = v
	}
	return dataset.NewSample(featureValues, int(label.Float64)), nil
}
