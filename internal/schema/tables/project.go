package tables

import "github.com/JonMunkholm/fundingdata/internal/schema"

// projectFK resolves a project code against the projects of the current
// submission only.
func projectFK(nullable bool) schema.ForeignKey {
	return schema.ForeignKey{
		Column:       ColProjectID,
		ParentTable:  ProjectDetails,
		ParentColumn: ColProjectID,
		TargetColumn: "project_id",
		Nullable:     nullable,
		Scoped:       true,
	}
}

func registerProjectDetails() {
	schema.Register(schema.TableDefinition{
		Name:    ProjectDetails,
		DBTable: "project_dim",
		Sheet:   "2 - Project Admin",
		Section: "Project Details",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id", Required: true},
			{Name: "Project Name", DBColumn: "project_name", Required: true},
			{Name: "Primary Intervention Theme", DBColumn: "primary_intervention_theme", Type: schema.FieldEnum, Required: true, EnumValues: InterventionThemes},
			{Name: "Single or Multiple Locations", DBColumn: "location_multiplicity", Type: schema.FieldEnum, Required: true, EnumValues: LocationMultiplicity},
			{Name: "Locations", DBColumn: "locations", Required: true},
			{Name: "Postcodes", DBColumn: "postcodes"},
			{Name: "GIS Provided", DBColumn: "gis_provided", Type: schema.FieldBool},
			{Name: "Lat/Long", DBColumn: "lat_long"},
		},
		Unique: [][]string{{ColProjectID}},
	})
}

func registerProjectProgress() {
	schema.Register(schema.TableDefinition{
		Name:    ProjectProgress,
		DBTable: "project_progress",
		Sheet:   "3 - Programme Progress",
		Section: "Projects Progress Summary",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id", Required: true},
			{Name: "Start Date", DBColumn: "start_date", Type: schema.FieldDate, Required: true},
			{Name: "Completion Date", DBColumn: "end_date", Type: schema.FieldDate, Required: true},
			{Name: "Project Adjustment Request Status", DBColumn: "adjustment_request_status", Type: schema.FieldEnum, EnumValues: AdjustmentRequestStatuses},
			{Name: "Project Delivery Status", DBColumn: "delivery_status", Type: schema.FieldEnum, Required: true, EnumValues: DeliveryStatuses},
			{Name: "Current Project Delivery Stage", DBColumn: "delivery_stage", Type: schema.FieldEnum, EnumValues: DeliveryStages},
			{Name: "Delivery (RAG)", DBColumn: "delivery_rag", Type: schema.FieldEnum, Required: true, EnumValues: RAGRatings},
			{Name: "Spend (RAG)", DBColumn: "spend_rag", Type: schema.FieldEnum, Required: true, EnumValues: RAGRatings},
			{Name: "Risk (RAG)", DBColumn: "risk_rag", Type: schema.FieldEnum, Required: true, EnumValues: RAGRatings},
			{Name: "Commentary on Status and RAG Ratings", DBColumn: "commentary"},
			{Name: "Most Important Upcoming Comms Milestone", DBColumn: "important_milestone"},
			{Name: "Date of Most Important Upcoming Comms Milestone", DBColumn: "date_of_important_milestone", Type: schema.FieldDate},
		},
		Unique:      [][]string{{ColProjectID}},
		ForeignKeys: []schema.ForeignKey{projectFK(false)},
		DateRanges:  []schema.DateRange{{Start: "Start Date", End: "Completion Date"}},
	})
}

func registerFunding() {
	schema.Register(schema.TableDefinition{
		Name:    Funding,
		DBTable: "funding",
		Sheet:   "4a - Funding Profiles",
		Section: "Funding Profiles",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id", Required: true},
			{Name: "Funding Source Name", DBColumn: "funding_source_name", Required: true},
			{Name: "Funding Source Type", DBColumn: "funding_source_type", Type: schema.FieldEnum, Required: true, EnumValues: FundingSourceTypes},
			{Name: "Secured", DBColumn: "secured", Type: schema.FieldBool},
			{Name: "Start Date", DBColumn: "start_date", Type: schema.FieldDate},
			{Name: "End Date", DBColumn: "end_date", Type: schema.FieldDate, Required: true},
			{Name: "Spend for Reporting Period", DBColumn: "spend_for_reporting_period", Type: schema.FieldNumeric, Required: true},
			{Name: "Actual/Forecast", DBColumn: "state", Type: schema.FieldEnum, Required: true, EnumValues: ActualForecast},
		},
		Unique: [][]string{
			{ColProjectID, "Funding Source Name", "Funding Source Type", "Start Date", "End Date"},
		},
		ForeignKeys: []schema.ForeignKey{projectFK(false)},
		DateRanges:  []schema.DateRange{{Start: "Start Date", End: "End Date"}},
	})
}

func registerFundingComments() {
	schema.Register(schema.TableDefinition{
		Name:    FundingComments,
		DBTable: "funding_comment",
		Sheet:   "4a - Funding Profiles",
		Section: "Comments",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id", Required: true},
			{Name: "Comment", DBColumn: "comment", Required: true},
		},
		Unique:      [][]string{{ColProjectID}},
		ForeignKeys: []schema.ForeignKey{projectFK(false)},
	})
}

func registerPrivateInvestments() {
	schema.Register(schema.TableDefinition{
		Name:    PrivateInvestments,
		DBTable: "private_investment",
		Sheet:   "4b - PSI",
		Section: "Private Sector Investment",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id", Required: true},
			{Name: "Total Project Value", DBColumn: "total_project_value", Type: schema.FieldNumeric, Required: true},
			{Name: "Townsfund Funding", DBColumn: "townsfund_funding", Type: schema.FieldNumeric, Required: true},
			{Name: "Private Sector Funding Required", DBColumn: "private_sector_funding_required", Type: schema.FieldNumeric, Required: true},
			{Name: "Private Sector Funding Secured", DBColumn: "private_sector_funding_secured", Type: schema.FieldNumeric},
			{Name: "Additional Comments", DBColumn: "additional_comments"},
		},
		Unique:      [][]string{{ColProjectID}},
		ForeignKeys: []schema.ForeignKey{projectFK(false)},
	})
}
