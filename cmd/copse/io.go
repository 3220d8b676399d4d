package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/dataset/csv"
	"github.com/pbanos/copse/dataset/mongodataset"
	"github.com/pbanos/copse/dataset/sqldataset"
	"github.com/pbanos/copse/dataset/sqldataset/pgadapter"
	"github.com/pbanos/copse/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/copse/feature"
	mgo "gopkg.in/mgo.v2"
)

type sampleWriter interface {
	Write(context.Context, []dataset.Sample) (int, error)
}

type writableSet interface {
	sampleWriter
	Flush() error
	Close() error
}

type closingSampleWriter struct {
	sampleWriter
	close func() error
}

type csvFileWriter struct {
	csv.Writer
	f *os.File
}

func isPostgreSQL(location string) bool {
	return strings.HasPrefix(location, "postgresql://") || strings.HasPrefix(location, "postgres://")
}

func isMongoDB(location string) bool {
	return strings.HasPrefix(location, "mongodb://")
}

func isSQLite3(location string) bool {
	return strings.HasSuffix(location, ".db")
}

/*
inputStream takes the location of a dataset and returns a stream with its
samples and a stream for the error that stops the reading, if any. The
location can be a PostgreSQL or MongoDB URL, an SQLite3 (.db) file or a
CSV file, with "" standing for CSV on STDIN.
*/
func (rcc *rootCmdConfig) inputStream(ctx context.Context, input string, md *feature.Metadata) (<-chan dataset.Sample, <-chan error, error) {
	switch {
	case isPostgreSQL(input):
		rcc.Logf("Opening dataset over PostgreSQL adapter for url %s...", input)
		adapter, err := pgadapter.New(input)
		if err != nil {
			return nil, nil, err
		}
		return rcc.sqlInputStream(ctx, adapter, md)
	case isMongoDB(input):
		rcc.Logf("Opening dataset on MongoDB at %s...", input)
		session, err := mgo.Dial(input)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to MongoDB: %v", err)
		}
		mds, err := mongodataset.Open(ctx, session, md)
		if err != nil {
			session.Close()
			return nil, nil, err
		}
		samples, errs := mds.Read(ctx)
		return samples, closeAfter(errs, func() error { session.Close(); return nil }), nil
	case isSQLite3(input):
		rcc.Logf("Opening dataset over SQLite3 adapter for file %s...", input)
		adapter, err := sqlite3adapter.New(input)
		if err != nil {
			return nil, nil, err
		}
		return rcc.sqlInputStream(ctx, adapter, md)
	}
	var f *os.File
	if input == "" {
		rcc.Logf("Reading dataset from STDIN...")
		f = os.Stdin
	} else {
		rcc.Logf("Opening %s to read dataset...", input)
		var err error
		f, err = os.Open(input)
		if err != nil {
			return nil, nil, fmt.Errorf("reading dataset from %s: %v", input, err)
		}
	}
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error, 1)
	go func() {
		defer close(errStream)
		defer close(sampleStream)
		defer f.Close()
		err := csv.ReadSetBySample(f, md, func(i int, s dataset.Sample) (bool, error) {
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
	return sampleStream, errStream, nil
}

func (rcc *rootCmdConfig) sqlInputStream(ctx context.Context, adapter sqldataset.Adapter, md *feature.Metadata) (<-chan dataset.Sample, <-chan error, error) {
	set, err := sqldataset.OpenSet(ctx, adapter, md)
	if err != nil {
		adapter.Close()
		return nil, nil, err
	}
	samples, errs := set.Read(ctx)
	return samples, closeAfter(errs, adapter.Close), nil
}

func closeAfter(errs <-chan error, release func() error) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		err := <-errs
		releaseErr := release()
		if err == nil {
			err = releaseErr
		}
		if err != nil {
			result <- err
		}
	}()
	return result
}

/*
loadDataset reads the whole dataset at the given location, which is
interpreted like in inputStream.
*/
func (rcc *rootCmdConfig) loadDataset(ctx context.Context, input string, md *feature.Metadata) (dataset.Dataset, error) {
	var ds dataset.Dataset
	var err error
	switch {
	case isPostgreSQL(input):
		rcc.Logf("Loading dataset over PostgreSQL adapter for url %s...", input)
		ds, err = loadSQLDataset(ctx, pgadapter.New, input, md)
	case isMongoDB(input):
		rcc.Logf("Loading dataset from MongoDB at %s...", input)
		ds, err = loadMongoDataset(ctx, input, md)
	case isSQLite3(input):
		rcc.Logf("Loading dataset over SQLite3 adapter for file %s...", input)
		ds, err = loadSQLDataset(ctx, sqlite3adapter.New, input, md)
	default:
		if input == "" {
			rcc.Logf("Reading dataset from STDIN...")
		} else {
			rcc.Logf("Reading dataset from %s...", input)
		}
		ds, err = csv.ReadSetFromFilePath(input, md)
	}
	if err != nil {
		return nil, err
	}
	rcc.Logf("Read %d samples", ds.Count())
	return ds, nil
}

func loadSQLDataset(ctx context.Context, newAdapter func(string) (sqldataset.Adapter, error), location string, md *feature.Metadata) (dataset.Dataset, error) {
	adapter, err := newAdapter(location)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()
	set, err := sqldataset.OpenSet(ctx, adapter, md)
	if err != nil {
		return nil, err
	}
	return set.Dataset(ctx)
}

func loadMongoDataset(ctx context.Context, url string, md *feature.Metadata) (dataset.Dataset, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %v", err)
	}
	defer session.Close()
	mds, err := mongodataset.Open(ctx, session, md)
	if err != nil {
		return nil, err
	}
	return mds.Samples(ctx)
}

/*
outputWriter takes the location for a dataset and returns a writer for it.
The location can be a PostgreSQL or MongoDB URL, an SQLite3 (.db) file or a
CSV file, with "" standing for CSV on STDOUT.
*/
func (rcc *rootCmdConfig) outputWriter(ctx context.Context, output string, md *feature.Metadata) (writableSet, error) {
	switch {
	case isPostgreSQL(output):
		rcc.Logf("Creating dataset over PostgreSQL adapter for url %s...", output)
		adapter, err := pgadapter.New(output)
		if err != nil {
			return nil, err
		}
		return sqlOutputWriter(ctx, adapter, md)
	case isMongoDB(output):
		rcc.Logf("Opening dataset on MongoDB at %s...", output)
		session, err := mgo.Dial(output)
		if err != nil {
			return nil, fmt.Errorf("connecting to MongoDB: %v", err)
		}
		mds, err := mongodataset.Open(ctx, session, md)
		if err != nil {
			session.Close()
			return nil, err
		}
		return &closingSampleWriter{mds, func() error { session.Close(); return nil }}, nil
	case isSQLite3(output):
		rcc.Logf("Creating dataset over SQLite3 adapter for file %s...", output)
		adapter, err := sqlite3adapter.New(output)
		if err != nil {
			return nil, err
		}
		return sqlOutputWriter(ctx, adapter, md)
	}
	f := os.Stdout
	if output != "" {
		rcc.Logf("Creating %s to dump dataset...", output)
		var err error
		f, err = os.Create(output)
		if err != nil {
			return nil, err
		}
	} else {
		rcc.Logf("Using STDOUT to dump dataset...")
	}
	w, err := csv.NewWriter(f, md)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &csvFileWriter{w, f}, nil
}

func sqlOutputWriter(ctx context.Context, adapter sqldataset.Adapter, md *feature.Metadata) (writableSet, error) {
	set, err := sqldataset.CreateSet(ctx, adapter, md)
	if err != nil {
		adapter.Close()
		return nil, err
	}
	return &closingSampleWriter{set, adapter.Close}, nil
}

func (csw *closingSampleWriter) Flush() error {
	return nil
}

func (csw *closingSampleWriter) Close() error {
	return csw.close()
}

func (cfw *csvFileWriter) Close() error {
	if cfw.f == os.Stdout {
		return nil
	}
	return cfw.f.Close()
}
