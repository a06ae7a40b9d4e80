package loader

import (
	"fmt"
	"math"
	"strconv"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Column extracts the named column of df as int64 values. An empty name
// selects the first column. Float cells must be integral and string
// cells must parse as integers; anything else fails with
// ErrNonIntegralColumn.
func Column(df *dataframe.DataFrame, name string) ([]int64, error) {
	var col dataframe.Series
	if name == "" {
		col = df.Series[0]
	} else {
		for _, s := range df.Series {
			if s.Name() == name {
				col = s
				break
			}
		}
		if col == nil {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
	}

	n := col.NRows()
	vals := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		v, err := cellInt64(col, i)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", col.Name(), i, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func cellInt64(col dataframe.Series, row int) (int64, error) {
	switch v := col.Value(row).(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", ErrNonIntegralColumn, v)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNonIntegralColumn, v)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%w: nil cell", ErrNonIntegralColumn)
	default:
		return 0, fmt.Errorf("%w: %v (%T)", ErrNonIntegralColumn, v, v)
	}
}
