package tracearrow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TraceStep is one entry of a scenario's delivery/drop schedule, the JSON
// wire shape converted to and from an Arrow record.
type TraceStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
}

// ReportRow summarizes one scenario run for a batch of many, the JSON
// wire shape backing ReportSchema.
type ReportRow struct {
	Label           string `json:"label"`
	Decided         bool   `json:"decided"`
	Wedged          bool   `json:"wedged"`
	WedgeReason     string `json:"wedge_reason,omitempty"`
	StatesVisited   int    `json:"states_visited"`
	MaxDepthReached int    `json:"max_depth_reached"`
	ViolationCount  int    `json:"violation_count"`
}

// Converter handles JSON/struct <-> Arrow conversion, adapted from
// hierachain-engine/data/converter.go's Converter.
type Converter struct {
	allocator memory.Allocator
}

// NewConverter returns a Converter using the default Arrow allocator.
func NewConverter() *Converter {
	return &Converter{allocator: memory.DefaultAllocator}
}

// TraceToArrow converts a trace (as produced by RunReport.ViolationTrace,
// or any delivery schedule) to an Arrow record matching TraceSchema.
func (c *Converter) TraceToArrow(trace []string) (arrow.Record, error) {
	if len(trace) == 0 {
		return nil, errors.New("tracearrow: empty trace")
	}

	builder := array.NewRecordBuilder(c.allocator, TraceSchema())
	defer builder.Release()

	stepBuilder := builder.Field(0).(*array.Int64Builder)
	descBuilder := builder.Field(1).(*array.StringBuilder)

	for i, desc := range trace {
		stepBuilder.Append(int64(i))
		descBuilder.Append(desc)
	}

	return builder.NewRecord(), nil
}

// ArrowToTrace converts a TraceSchema record back to a description slice
// in row order (TraceToArrow writes step i at row i); the step column
// itself is not read.
func ArrowToTrace(record arrow.Record) ([]string, error) {
	if record == nil {
		return nil, errors.New("tracearrow: nil record")
	}
	if record.NumCols() < 2 {
		return nil, fmt.Errorf("tracearrow: expected at least 2 columns, got %d", record.NumCols())
	}

	descCol, ok := record.Column(1).(*array.String)
	if !ok {
		return nil, errors.New("tracearrow: column 1 (description) is not a String array")
	}

	out := make([]string, record.NumRows())
	for i := int64(0); i < record.NumRows(); i++ {
		out[i] = descCol.Value(int(i))
	}
	return out, nil
}

// ReportsToArrow converts a batch of per-scenario summaries to an Arrow
// record matching ReportSchema.
func (c *Converter) ReportsToArrow(rows []ReportRow) (arrow.Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("tracearrow: empty report batch")
	}

	builder := array.NewRecordBuilder(c.allocator, ReportSchema())
	defer builder.Release()

	labelBuilder := builder.Field(0).(*array.StringBuilder)
	decidedBuilder := builder.Field(1).(*array.BooleanBuilder)
	wedgedBuilder := builder.Field(2).(*array.BooleanBuilder)
	reasonBuilder := builder.Field(3).(*array.StringBuilder)
	statesBuilder := builder.Field(4).(*array.Int64Builder)
	depthBuilder := builder.Field(5).(*array.Int64Builder)
	violationsBuilder := builder.Field(6).(*array.Int64Builder)

	for _, row := range rows {
		labelBuilder.Append(row.Label)
		decidedBuilder.Append(row.Decided)
		wedgedBuilder.Append(row.Wedged)
		if row.WedgeReason != "" {
			reasonBuilder.Append(row.WedgeReason)
		} else {
			reasonBuilder.AppendNull()
		}
		statesBuilder.Append(int64(row.StatesVisited))
		depthBuilder.Append(int64(row.MaxDepthReached))
		violationsBuilder.Append(int64(row.ViolationCount))
	}

	return builder.NewRecord(), nil
}

// JSONToTrace unmarshals a JSON array of TraceStep and converts it to an
// Arrow record, mirroring converter.go's JSONToArrowBatch entry point.
func (c *Converter) JSONToTrace(data []byte) (arrow.Record, error) {
	var steps []TraceStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("tracearrow: failed to unmarshal JSON: %w", err)
	}
	descs := make([]string, len(steps))
	for i, s := range steps {
		descs[i] = s.Description
	}
	return c.TraceToArrow(descs)
}

// ValidateSchema checks that a record's schema matches expected field-for-field,
// adapted from hierachain-engine/data/converter.go's ValidateSchema.
func ValidateSchema(record arrow.Record, expected *arrow.Schema) error {
	if record == nil {
		return errors.New("tracearrow: record is nil")
	}
	actual := record.Schema()
	if actual.NumFields() != expected.NumFields() {
		return fmt.Errorf("tracearrow: field count mismatch: got %d, expected %d",
			actual.NumFields(), expected.NumFields())
	}
	for i := 0; i < actual.NumFields(); i++ {
		af, ef := actual.Field(i), expected.Field(i)
		if af.Name != ef.Name {
			return fmt.Errorf("tracearrow: field %d name mismatch: got %s, expected %s", i, af.Name, ef.Name)
		}
		if !arrow.TypeEqual(af.Type, ef.Type) {
			return fmt.Errorf("tracearrow: field %s type mismatch: got %s, expected %s", af.Name, af.Type, ef.Type)
		}
	}
	return nil
}
