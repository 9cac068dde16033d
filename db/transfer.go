package db

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nickyhof/tike/core"
)

// maxLineSize bounds a single JSON Lines record on import.
const maxLineSize = 4 * 1024 * 1024

// ExportTable writes every row of table to w as JSON Lines, in
// GetAllRecords order. NULL columns are left out so they stay NULL on
// import. It returns the number of records written.
func (engine *Engine) ExportTable(table string, w io.Writer) (int, error) {
	exporter := *engine
	exporter.nullPolicy = NullAsAbsent

	records, err := exporter.GetAllRecords(table)
	if err != nil {
		return 0, err
	}

	buf := bufio.NewWriter(w)
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	for i, record := range records {
		if err := encoder.Encode(record); err != nil {
			return i, fmt.Errorf("failed to encode %s record %d: %w", table, i+1, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return len(records), fmt.Errorf("failed to write %s export: %w", table, err)
	}

	engine.logger.Debug("exported table", "table", table, "records", len(records))
	return len(records), nil
}

// ImportTable appends the JSON Lines records read from r to table in one
// transaction. Blank lines are skipped.
func (engine *Engine) ImportTable(table string, r io.Reader) (int, error) {
	records, err := ReadRecords(table, r)
	if err != nil {
		return 0, err
	}

	err = engine.Transaction(func(tx *Engine) error {
		for _, record := range records {
			if err := tx.AddRecord(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	engine.logger.Debug("imported table", "table", table, "records", len(records))
	return len(records), nil
}

// DumpTable returns the JSON Lines export of table.
func (engine *Engine) DumpTable(table string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := engine.ExportTable(table, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadTable replaces the contents of table with the JSON Lines in data.
func (engine *Engine) LoadTable(table string, data []byte) (int, error) {
	records, err := ReadRecords(table, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	if err := engine.ReplaceAllRecords(table, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadRecords decodes JSON Lines from r into records of table.
func ReadRecords(table string, r io.Reader) ([]core.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	records := []core.Record{}
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		record := core.NewRecord(table, nil)
		if err := json.Unmarshal(data, &record); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return nil, fmt.Errorf("%w: line %d of %s import: %w", core.ErrInvalidInput, line, table, err)
			}
			return nil, fmt.Errorf("line %d of %s import: %w", line, table, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s import: %w", table, err)
	}
	return records, nil
}

// ExportTo writes table to a local path, file:// URL or s3://bucket/key.
func (engine *Engine) ExportTo(table, url string) (int, error) {
	loc, err := parseLocation(url)
	if err != nil {
		return 0, err
	}
	w, err := loc.create(context.Background(), engine.s3)
	if err != nil {
		return 0, err
	}

	n, err := engine.ExportTable(table, w)
	if closeErr := w.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to finish export to %s: %w", url, closeErr)
	}
	if err != nil {
		return 0, err
	}

	engine.logger.Info("exported", "table", table, "url", url, "records", n)
	return n, nil
}

// ImportFrom appends records read from a local path, file:// URL,
// http(s):// URL or s3://bucket/key to table.
func (engine *Engine) ImportFrom(table, url string) (int, error) {
	loc, err := parseLocation(url)
	if err != nil {
		return 0, err
	}
	r, err := loc.open(context.Background(), engine.s3)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := engine.ImportTable(table, r)
	if err != nil {
		return 0, err
	}

	engine.logger.Info("imported", "table", table, "url", url, "records", n)
	return n, nil
}
