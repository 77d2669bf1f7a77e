package tracearrow

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// TraceSchema returns the Arrow schema for one scenario run's trace: a
// flat sequence of "deliver"/"drop" step descriptions, adapted from
// hierachain-engine/data/schema.go's EventSchema shape. The run's outcome
// is not part of this schema; ReportSchema carries it.
//
// Fields:
//   - step: int64 - zero-based index into the schedule
//   - description: string - human-readable step, e.g. "deliver Prepare(V1) 1->2"
func TraceSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "step", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
			{Name: "description", Type: arrow.BinaryTypes.String, Nullable: false},
		},
		nil,
	)
}

// ReportSchema returns the Arrow schema for a scenario run's summary
// outcome, one row per labeled scenario in a sweep batch.
//
// Fields:
//   - label: string - the scenario's ScenarioConfig.Label
//   - decided: bool - whether any replica reached Decided
//   - wedged: bool - whether the run ended without a decision
//   - wedge_reason: string - WedgeReason.String(), null if not wedged
//   - states_visited: int64
//   - max_depth_reached: int64
//   - violation_count: int64
func ReportSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "label", Type: arrow.BinaryTypes.String, Nullable: false},
			{Name: "decided", Type: arrow.FixedWidthTypes.Boolean, Nullable: false},
			{Name: "wedged", Type: arrow.FixedWidthTypes.Boolean, Nullable: false},
			{Name: "wedge_reason", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "states_visited", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
			{Name: "max_depth_reached", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
			{Name: "violation_count", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		},
		nil,
	)
}
