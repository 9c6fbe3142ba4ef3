package parameters

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
)

// ExportParquet writes params as a single row group, SNAPPY compressed, to path.
func ExportParquet(path string, params []StellarParameters) error {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(StellarParameters), int64(len(params)))
	if err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to create parquet writer", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var errs *multierror.Error
	for _, p := range params {
		if err := pw.Write(p); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("row %s: %w", p.ID, err))
		}
	}

	// WriteStop panics on some malformed schemas instead of returning an error.
	func() {
		defer func() {
			if r := recover(); r != nil {
				errs = multierror.Append(errs, fmt.Errorf("parquet writer panicked during WriteStop: %v", r))
			}
		}()
		if err := pw.WriteStop(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}()
	if err := errs.ErrorOrNil(); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "failed to encode parameter table '%s'", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "cannot write parameter table '%s'", path, err)
	}
	return nil
}
