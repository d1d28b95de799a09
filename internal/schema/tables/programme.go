package tables

import "github.com/JonMunkholm/fundingdata/internal/schema"

func registerSubmission() {
	schema.Register(schema.TableDefinition{
		Name:    SubmissionRef,
		DBTable: "submission_dim",
		Sheet:   "1 - Start Here",
		Section: "Start Here",
		Role:    schema.RoleSubmission,
		Fields: []schema.FieldSpec{
			{Name: ColReportingRound, DBColumn: "reporting_round", Type: schema.FieldInt, Required: true},
			{Name: "Reporting Period Start", DBColumn: "reporting_period_start", Type: schema.FieldDate, Required: true},
			{Name: "Reporting Period End", DBColumn: "reporting_period_end", Type: schema.FieldDate, Required: true},
			{Name: "Submission ID", DBColumn: "submission_id", Injected: true},
			{Name: "Ingest Date", DBColumn: "ingest_date", Type: schema.FieldDate, Injected: true},
			{Name: "Submission Filename", DBColumn: "submission_filename", Injected: true},
			{Name: "Submitting Account ID", DBColumn: "submitting_account_id", Injected: true},
			{Name: "Submitting User Email", DBColumn: "submitting_user_email", Injected: true},
		},
		DateRanges: []schema.DateRange{{Start: "Reporting Period Start", End: "Reporting Period End"}},
	})
}

func registerOrganisation() {
	schema.Register(schema.TableDefinition{
		Name:     OrganisationRef,
		DBTable:  "organisation_dim",
		Sheet:    "2 - Project Admin",
		Section:  "Organisation",
		Role:     schema.RoleDimension,
		Strategy: schema.InsertIfAbsentByNaturalKey,
		Fields: []schema.FieldSpec{
			{Name: ColOrganisation, DBColumn: "organisation_name", Required: true},
			{Name: "Geography", DBColumn: "geography"},
		},
		Unique:     [][]string{{ColOrganisation}},
		NaturalKey: []string{ColOrganisation},
	})
}

func registerProgramme() {
	schema.Register(schema.TableDefinition{
		Name:     ProgrammeRef,
		DBTable:  "programme_dim",
		Sheet:    "2 - Project Admin",
		Section:  "Programme",
		Role:     schema.RoleProgramme,
		Strategy: schema.MergeIfOlderRound,
		Fields: []schema.FieldSpec{
			{Name: ColProgrammeID, DBColumn: "programme_id", Required: true},
			{Name: "Programme Name", DBColumn: "programme_name", Required: true},
			{Name: "Fund Type", DBColumn: "fund_type_id", Type: schema.FieldEnum, Required: true, EnumValues: FundTypes},
			{Name: ColOrganisation, DBColumn: "organisation", Required: true},
		},
		Unique:     [][]string{{ColProgrammeID}},
		NaturalKey: []string{ColProgrammeID},
		ForeignKeys: []schema.ForeignKey{
			{Column: ColOrganisation, ParentTable: OrganisationRef, ParentColumn: ColOrganisation, TargetColumn: "organisation_id"},
		},
	})
}

func registerProgrammeJunction() {
	schema.Register(schema.TableDefinition{
		Name:    ProgrammeJunction,
		DBTable: "programme_junction",
		Sheet:   "2 - Project Admin",
		Section: "Programme",
		Role:    schema.RoleRoundLink,
		Parent:  schema.ParentSubmission,
		Fields: []schema.FieldSpec{
			{Name: ColProgrammeID, DBColumn: "programme_id", Required: true},
			{Name: ColReportingRound, DBColumn: "reporting_round", Type: schema.FieldInt, Required: true},
		},
		Unique: [][]string{{ColProgrammeID}},
		ForeignKeys: []schema.ForeignKey{
			{Column: ColProgrammeID, ParentTable: ProgrammeRef, ParentColumn: ColProgrammeID, TargetColumn: "programme_id"},
		},
	})
}

func registerPlaceDetails() {
	schema.Register(schema.TableDefinition{
		Name:    PlaceDetails,
		DBTable: "place_detail",
		Sheet:   "2 - Project Admin",
		Section: "Place Details",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: "Question", DBColumn: "question", Required: true},
			{Name: "Indicator", DBColumn: "indicator"},
			{Name: "Answer", DBColumn: "answer"},
		},
		Unique: [][]string{{"Question", "Indicator"}},
	})
}

func registerProgrammeProgress() {
	schema.Register(schema.TableDefinition{
		Name:    ProgrammeProgress,
		DBTable: "programme_progress",
		Sheet:   "3 - Programme Progress",
		Section: "Programme-Wide Progress Summary",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: "Question", DBColumn: "question", Required: true},
			{Name: "Answer", DBColumn: "answer"},
		},
		Unique: [][]string{{"Question"}},
	})
}
