package export

import (
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ParquetSaver writes the trade log to the given path and the equity curve
// next to it with an _equity suffix. Parquet has no notion of the csv
// report's mixed sections, so the two tables land in separate files.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(report *Report, path string) error {
	if err := parquet.WriteFile(path, report.tradeRows()); err != nil {
		return err
	}
	base := strings.TrimSuffix(path, ".parquet")
	if len(report.Signals) > 0 {
		if err := parquet.WriteFile(base+"_signals.parquet", report.signalRows()); err != nil {
			return err
		}
	}
	return parquet.WriteFile(base+"_equity.parquet", report.equityRows())
}
