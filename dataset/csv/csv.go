package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
)

/*
Writer is an interface for a destination to which samples
can be written to.
*/
type Writer interface {
	// Write will attempt to write the given
	// samples and will return the actually written
	// number of samples and an error (if not all samples
	// could be written)
	Write(context.Context, []dataset.Sample) (int, error)
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count int
	md    *feature.Metadata
	w     *csv.Writer
}

/*
ReadSet takes an io.Reader for a CSV stream and the metadata describing its
columns and returns the dataset.Dataset parsed from the reader or an error.

The header or first row of the CSV content names the columns. Columns that
are neither the label nor a feature of the metadata are ignored. Rows with
an empty label are skipped. Empty or '?' feature values are replaced with
the default for the feature in the metadata.
*/
func ReadSet(reader io.Reader, md *feature.Metadata) (dataset.Dataset, error) {
	samples := dataset.Dataset{}
	err := ReadSetBySample(reader, md, func(_ int, s dataset.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

/*
ReadSetBySample takes an io.Reader for a CSV stream, the metadata describing
its columns and a lambda function on an integer and a dataset.Sample that
returns a boolean value. It parses the samples from the reader and for each it
calls the lambda function with the sample and its index as parameters. If the
lambda function returns true, it will continue processing the next sample,
otherwise it will stop. An error is returned if something goes wrong when
reading the stream or parsing a sample.
*/
func ReadSetBySample(reader io.Reader, md *feature.Metadata, lambda func(int, dataset.Sample) (bool, error)) error {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	columns, labelColumn, err := parseColumnsFromCSVHeader(header, md)
	if err != nil {
		return err
	}
	n := 0
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		sample, err := parseSampleFromCSVRow(row, md, columns, labelColumn)
		if err != nil {
			return fmt.Errorf("parsing line %d: %w", l, err)
		}
		if sample == nil {
			continue
		}
		ok, err := lambda(n, sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n++
	}
	return nil
}

/*
ReadSetFromFilePath takes a filepath string and the metadata describing the
CSV columns, opens the file to which the filepath points to and uses ReadSet
to return a dataset.Dataset read from it or an error. If the filepath is ""
os.Stdin is used instead.
*/
func ReadSetFromFilePath(filepath string, md *feature.Metadata) (dataset.Dataset, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %v", err)
		}
		defer f.Close()
	}
	ds, err := ReadSet(f, md)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %w", filepath, err)
	}
	return ds, err
}

/*
NewWriter takes an io.Writer and the metadata describing the samples and
returns a Writer that will write any samples on the io.Writer as CSV rows,
with discrete feature values formatted as their labels.
*/
func NewWriter(writer io.Writer, md *feature.Metadata) (Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, 0, len(md.Features)+1)
	for _, f := range md.Features {
		record = append(record, f.Name())
	}
	record = append(record, md.Label)
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{md: md, w: w}, nil
}

/*
WriteCSVSet takes a writer, a dataset.Dataset and the metadata describing it
and dumps the dataset to the writer in CSV format. It returns an error if
something went wrong when writing to the writer or formatting the samples.
*/
func WriteCSVSet(ctx context.Context, writer io.Writer, ds dataset.Dataset, md *feature.Metadata) error {
	cw, err := NewWriter(writer, md)
	if err != nil {
		return err
	}
	_, err = cw.Write(ctx, ds)
	if err != nil {
		return err
	}
	return cw.Flush()
}

func parseColumnsFromCSVHeader(header []string, md *feature.Metadata) ([]feature.Feature, int, error) {
	columns := make([]feature.Feature, len(header))
	labelColumn := -1
	seen := make(map[string]bool)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if seen[name] {
			return nil, 0, fmt.Errorf("parsing header: duplicated column %s", name)
		}
		seen[name] = true
		if name == md.Label {
			labelColumn = i
			continue
		}
		if f, ok := md.Feature(name); ok {
			columns[i] = f
		}
	}
	if labelColumn < 0 {
		return nil, 0, fmt.Errorf("parsing header: missing label column %s", md.Label)
	}
	for _, f := range md.Features {
		if !seen[f.Name()] {
			return nil, 0, fmt.Errorf("parsing header: missing feature column %s", f.Name())
		}
	}
	return columns, labelColumn, nil
}

func parseSampleFromCSVRow(row []string, md *feature.Metadata, columns []feature.Feature, labelColumn int) (dataset.Sample, error) {
	rawLabel := strings.TrimSpace(row[labelColumn])
	if rawLabel == "" || rawLabel == "?" {
		return nil, nil
	}
	label, err := parseLabel(rawLabel)
	if err != nil {
		return nil, fmt.Errorf("label %s: %w", md.Label, err)
	}
	featureValues := make(map[string]float64, len(md.Features))
	for i, f := range columns {
		if f == nil {
			continue
		}
		raw := strings.TrimSpace(row[i])
		var value float64
		if raw == "" || raw == "?" {
			var ok bool
			value, ok, err = md.Default(f)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("missing value for feature %s without default", f.Name())
			}
		} else {
			value, err = f.Parse(raw)
			if err != nil {
				return nil, err
			}
		}
		featureValues[f.Name()] = value
	}
	return dataset.NewSample(featureValues, label), nil
}

func parseLabel(raw string) (int, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("converting %s to a number: %v", raw, err)
	}
	switch v {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return 0, fmt.Errorf("must be 0 or 1, got %s", raw)
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	for n, s := range samples {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}
		err := cw.WriteSample(s)
		if err != nil {
			return n, err
		}
	}
	return len(samples), nil
}

func (cw *csvWriter) WriteSample(sample dataset.Sample) error {
	record := make([]string, 0, len(cw.md.Features)+1)
	for _, f := range cw.md.Features {
		v, err := sample.ValueFor(f.Name())
		if err != nil {
			return err
		}
		record = append(record, f.Format(v))
	}
	record = append(record, strconv.Itoa(sample.Label()))
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for sample %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
