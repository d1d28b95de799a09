package tables

import "github.com/JonMunkholm/fundingdata/internal/schema"

// Programme-level risks leave Project ID blank.
func registerRiskRegister() {
	schema.Register(schema.TableDefinition{
		Name:    RiskRegister,
		DBTable: "risk_register",
		Sheet:   "7 - Risk Register",
		Section: "Risk Register",
		Parent:  schema.ParentRoundLink,
		Fields: []schema.FieldSpec{
			{Name: ColProjectID, DBColumn: "project_id"},
			{Name: "Risk Name", DBColumn: "risk_name", Required: true},
			{Name: "Risk Category", DBColumn: "risk_category", Type: schema.FieldEnum, Required: true, EnumValues: RiskCategories},
			{Name: "Short Description", DBColumn: "short_desc", Required: true},
			{Name: "Full Description", DBColumn: "full_desc", Required: true},
			{Name: "Consequences", DBColumn: "consequences", Required: true},
			{Name: "Pre-mitigated Impact", DBColumn: "pre_mitigated_impact", Type: schema.FieldEnum, EnumValues: Impacts},
			{Name: "Pre-mitigated Likelihood", DBColumn: "pre_mitigated_likelihood", Type: schema.FieldEnum, EnumValues: Likelihoods},
			{Name: "Mitigations", DBColumn: "mitigations"},
			{Name: "Post-mitigated Impact", DBColumn: "post_mitigated_impact", Type: schema.FieldEnum, EnumValues: Impacts},
			{Name: "Post-mitigated Likelihood", DBColumn: "post_mitigated_likelihood", Type: schema.FieldEnum, EnumValues: Likelihoods},
			{Name: "Proximity", DBColumn: "proximity", Type: schema.FieldEnum, EnumValues: Proximities},
			{Name: "Risk Owner/Role", DBColumn: "risk_owner_role"},
		},
		Unique:      [][]string{{ColProjectID, "Risk Name"}},
		ForeignKeys: []schema.ForeignKey{projectFK(true)},
	})
}
