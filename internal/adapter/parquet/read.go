package parquet

import (
	"fmt"
	"io"
	"os"

	parquetgo "github.com/parquet-go/parquet-go"
)

// ReadEvents loads an events file written by WriteEvents.
func ReadEvents(path string) ([]EventRow, error) {
	rows, err := readAll[EventRow](path)
	if err != nil {
		return nil, fmt.Errorf("read events parquet: %w", err)
	}
	return rows, nil
}

// ReadSeries loads a series file written by WriteSeries.
func ReadSeries(path string) ([]SeriesRow, error) {
	rows, err := readAll[SeriesRow](path)
	if err != nil {
		return nil, fmt.Errorf("read series parquet: %w", err)
	}
	return rows, nil
}

func readAll[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquetgo.OpenFile(f, info.Size())
	if err != nil {
		return nil, err
	}

	reader := parquetgo.NewGenericReader[T](pf)
	defer reader.Close()

	var out []T
	buf := make([]T, 64)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
