package space

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/notebook/internal/service"
)

// readData parses a structured file by its extension
func (p *Provider) readData(ctx context.Context, args []any) (any, error) {
	name, err := service.StringArg(args, 0, "name")
	if err != nil {
		return nil, err
	}
	data, _, err := p.store.Read(ctx, name)
	if err != nil {
		return nil, err
	}

	var parsed any
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		err = sonic.Unmarshal(data, &parsed)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	case ".csv":
		parsed, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported data format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return parsed, nil
}

// writeData encodes a value in the format named by the file extension
func (p *Provider) writeData(ctx context.Context, args []any) (any, error) {
	name, err := service.StringArg(args, 0, "name")
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("missing argument data")
	}
	value := args[1]

	var encoded []byte
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		encoded, err = sonic.ConfigStd.MarshalIndent(value, "", "  ")
	case ".yaml", ".yml":
		encoded, err = yaml.Marshal(value)
	case ".toml":
		encoded, err = toml.Marshal(value)
	case ".csv":
		encoded, err = encodeCSV(value)
	default:
		return nil, fmt.Errorf("unsupported data format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return p.store.Write(ctx, name, encoded)
}

// parseCSV returns rows keyed by the header row
func parseCSV(data []byte) ([]map[string]string, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	rows := []map[string]string{}
	if len(records) == 0 {
		return rows, nil
	}
	headers := records[0]
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for j, value := range record {
			if j < len(headers) {
				row[headers[j]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// encodeCSV writes an array of arrays; the first row is the header
func encodeCSV(value any) ([]byte, error) {
	rows, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("csv data must be an array of rows")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, r := range rows {
		cells, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("csv row %d must be an array", i)
		}
		record := make([]string, len(cells))
		for j, cell := range cells {
			record[j] = fmt.Sprint(cell)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
