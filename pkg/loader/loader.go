// Package loader reads program sources and input data sets for VM runs.
//
// Input values can come from CSV, JSON, or Parquet files; the file is
// loaded into a dataframe and an integer column is extracted for
// seeding a Vm's input queue with EnqueueInput.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Error definitions
var (
	ErrEmptyFile         = errors.New("empty data file")
	ErrUnknownFormat     = errors.New("unknown data file format")
	ErrColumnNotFound    = errors.New("column not found")
	ErrNonIntegralColumn = errors.New("column holds non-integral values")
)

// Source reads a program source file as text, with line endings left for
// the parser to normalize.
func Source(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Inputs loads the data file at path (dispatching on its extension:
// .csv, .json, or .parquet) and extracts the named integer column as VM
// input values. An empty column name selects the file's first column.
func Inputs(path, column string) ([]int64, error) {
	df, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Column(df, column)
}

// Load reads a CSV, JSON, or Parquet file into a dataframe, dispatching
// on the file extension.
func Load(path string) (*dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".json":
		return LoadJSON(path)
	case ".parquet":
		return LoadParquet(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
