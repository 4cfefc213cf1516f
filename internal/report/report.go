package report

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"shelfex/internal/extractor"
	"shelfex/internal/journal"
)

// RowRecord is the Parquet schema for one manifest row's outcome.
type RowRecord struct {
	RowIndex     int64  `parquet:"name=row_index, type=INT64"`
	ZipURL       string `parquet:"name=zip_url, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Status       string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ImagesSaved  int32  `parquet:"name=images_saved, type=INT32"`
	CounterStart int64  `parquet:"name=counter_start, type=INT64"`
	CounterEnd   int64  `parquet:"name=counter_end, type=INT64"`
	DurationMs   int64  `parquet:"name=duration_ms, type=INT64"`
	Error        string `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// WriteRowReport saves one Parquet row per manifest row outcome.
func WriteRowReport(path string, outcomes []extractor.RowOutcome) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create report file %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(RowRecord), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("init report writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, o := range outcomes {
		rec := RowRecord{
			RowIndex:     int64(o.Index),
			ZipURL:       o.ZipURL,
			Status:       o.Status,
			ImagesSaved:  int32(o.ImagesSaved),
			CounterStart: int64(o.CounterStart),
			CounterEnd:   int64(o.CounterEnd),
			DurationMs:   o.Duration.Milliseconds(),
			Error:        o.ErrMsg,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write report row %d: %w", o.Index, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize report %s: %w", path, err)
	}
	return fw.Close()
}

// EventRecord is the Parquet schema for a journal entry export.
type EventRecord struct {
	Subject     string `parquet:"name=subject, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SubjectType string `parquet:"name=subject_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Event       string `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TimestampMs int64  `parquet:"name=timestamp_ms, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	SourceURL   string `parquet:"name=source_url, type=BYTE_ARRAY, convertedtype=UTF8"`
	OutputPath  string `parquet:"name=output_path, type=BYTE_ARRAY, convertedtype=UTF8"`
	Message     string `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8"`
	DurationMs  int64  `parquet:"name=duration_ms, type=INT64"`
}

// WriteEventReport exports journal records to a Parquet file.
func WriteEventReport(path string, records []journal.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create report file %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(EventRecord), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("init report writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, r := range records {
		rec := EventRecord{
			Subject:     r.Subject,
			SubjectType: r.SubjectType,
			Event:       r.Event,
			TimestampMs: r.Timestamp.UnixMilli(),
			SourceURL:   r.SourceURL,
			OutputPath:  r.OutputPath,
			Message:     r.Message,
			DurationMs:  r.DurationMs,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write report record %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize report %s: %w", path, err)
	}
	return fw.Close()
}
