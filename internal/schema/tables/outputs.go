package tables

import "github.com/JonMunkholm/fundingdata/internal/schema"

func registerOutputs() {
	schema.Register(schema.TableDefinition{
		Name:     OutputsRef,
		DBTable:  "output_dim",
		Sheet:    "5 - Project Outputs",
		Section:  "Project Outputs",
		Role:     schema.RoleDimension,
		Strategy: schema.InsertIfAbsentByNaturalKey,
		Fields: []schema.FieldSpec{
			{Name: "Output Name", DBColumn: "output_name", Required: true},
			{Name: "Output Category", DBColumn: "output_category", Required: true},
		},
		Unique:     [][]string{{"Output Name"}},
		NaturalKey: []string{"Output Name"},
	})

	schema.Register(schema.TableDefinition{
		Name:    OutputData,
		DBTable: "output_data",
		Sheet:   "5 - Project Outputs",
		Section: "Project Outputs",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id", Required: true},
			{Name: "Output", DBColumn: "output", Required: true},
			{Name: "Start Date", DBColumn: "start_date", Type: schema.FieldDate, Required: true},
			{Name: "End Date", DBColumn: "end_date", Type: schema.FieldDate},
			{Name: "Unit of Measurement", DBColumn: "unit_of_measurement", Required: true},
			{Name: "Actual/Forecast", DBColumn: "state", Type: schema.FieldEnum, Required: true, EnumValues: ActualForecast},
			{Name: "Amount", DBColumn: "amount", Type: schema.FieldNumeric, Required: true},
			{Name: "Additional Information", DBColumn: "additional_information"},
		},
		Unique: [][]string{
			{ColProjectID, "Output", "Start Date", "End Date", "Unit of Measurement", "Actual/Forecast"},
		},
		ForeignKeys: []schema.ForeignKey{
			projectFK(false),
			{Column: "Output", ParentTable: OutputsRef, ParentColumn: "Output Name", TargetColumn: "output_id"},
		},
		DateRanges: []schema.DateRange{{Start: "Start Date", End: "End Date"}},
	})
}

func registerOutcomes() {
	schema.Register(schema.TableDefinition{
		Name:     OutcomeRef,
		DBTable:  "outcome_dim",
		Sheet:    "6 - Outcomes",
		Section:  "Outcome Indicators",
		Role:     schema.RoleDimension,
		Strategy: schema.InsertIfAbsentByNaturalKey,
		Fields: []schema.FieldSpec{
			{Name: "Outcome Name", DBColumn: "outcome_name", Required: true},
			{Name: "Outcome Category", DBColumn: "outcome_category", Required: true},
		},
		Unique:     [][]string{{"Outcome Name"}},
		NaturalKey: []string{"Outcome Name"},
	})

	schema.Register(schema.TableDefinition{
		Name:    OutcomeData,
		DBTable: "outcome_data",
		Sheet:   "6 - Outcomes",
		Section: "Outcome Indicators",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id"},
			{Name: "Outcome", DBColumn: "outcome", Required: true},
			{Name: "Start Date", DBColumn: "start_date", Type: schema.FieldDate, Required: true},
			{Name: "End Date", DBColumn: "end_date", Type: schema.FieldDate},
			{Name: "Unit of Measurement", DBColumn: "unit_of_measurement", Required: true},
			{Name: "Geography Indicator", DBColumn: "geography_indicator", Type: schema.FieldEnum, Required: true, EnumValues: GeographyIndicators},
			{Name: "Amount", DBColumn: "amount", Type: schema.FieldNumeric, Required: true},
			{Name: "Actual/Forecast", DBColumn: "state", Type: schema.FieldEnum, Required: true, EnumValues: ActualForecast},
			{Name: "Higher Frequency", DBColumn: "higher_frequency"},
		},
		Unique: [][]string{
			{ColProjectID, "Outcome", "Start Date", "End Date", "Geography Indicator", "Actual/Forecast"},
		},
		ForeignKeys: []schema.ForeignKey{
			projectFK(true),
			{Column: "Outcome", ParentTable: OutcomeRef, ParentColumn: "Outcome Name", TargetColumn: "outcome_id"},
		},
		DateRanges: []schema.DateRange{{Start: "Start Date", End: "End Date"}},
	})
}
