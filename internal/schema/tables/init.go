// Package tables registers every canonical table definition with the schema
// registry. Import this package to ensure all tables are registered.
package tables

// Canonical table names shared by the transformers, validator and loader.
const (
	SubmissionRef      = "Submission_Ref"
	OrganisationRef    = "Organisation_Ref"
	ProgrammeRef       = "Programme_Ref"
	ProgrammeJunction  = "Programme_Junction"
	PlaceDetails       = "Place_Details"
	ProgrammeProgress  = "Programme_Progress"
	ProjectDetails     = "Project_Details"
	ProjectProgress    = "Project_Progress"
	Funding            = "Funding"
	FundingComments    = "Funding_Comments"
	PrivateInvestments = "Private_Investments"
	OutputsRef         = "Outputs_Ref"
	OutputData         = "Output_Data"
	OutcomeRef         = "Outcome_Ref"
	OutcomeData        = "Outcome_Data"
	RiskRegister       = "Risk_Register"
)

// Key columns injected or shared across tables.
const (
	ColProgrammeID    = "Programme ID"
	ColProjectID      = "Project ID"
	ColReportingRound = "Reporting Round"
	ColOrganisation   = "Organisation"
)

// Registration order is the tie-break order for the dependency sort, so it
// is kept in one place rather than spread over per-file init functions.
func init() {
	registerSubmission()
	registerOrganisation()
	registerProgramme()
	registerProgrammeJunction()
	registerPlaceDetails()
	registerProgrammeProgress()
	registerProjectDetails()
	registerProjectProgress()
	registerFunding()
	registerFundingComments()
	registerPrivateInvestments()
	registerOutputs()
	registerOutcomes()
	registerRiskRegister()
}
