package tables

// Dropdown values offered by the reporting template.
var (
	FundTypes = []string{"TD", "HS"}

	RAGRatings = []string{"Green", "Amber", "Red"}

	DeliveryStatuses = []string{
		"Not yet started",
		"Ongoing - on schedule",
		"Ongoing - delayed",
		"Completed",
		"Cancelled",
	}

	AdjustmentRequestStatuses = []string{
		"No adjustment requested",
		"Adjustment requested",
		"Adjustment approved",
		"Adjustment rejected",
	}

	DeliveryStages = []string{
		"Planning",
		"Procurement",
		"Construction",
		"Completion",
	}

	InterventionThemes = []string{
		"Urban Regeneration",
		"Transport",
		"Enterprise Infrastructure",
		"Skills",
		"Arts and Culture",
		"Digital Connectivity",
	}

	LocationMultiplicity = []string{"Single", "Multiple"}

	FundingSourceTypes = []string{"Towns Fund", "Public", "Private", "Third Sector"}

	ActualForecast = []string{"Actual", "Forecast"}

	GeographyIndicators = []string{
		"Travel corridor",
		"Town",
		"Local authority",
		"Region",
		"Programme area",
	}

	RiskCategories = []string{
		"Delivery",
		"Financial",
		"Legal",
		"Operational",
		"Reputational",
		"Strategic",
		"Other",
	}

	Impacts     = []string{"Low", "Medium", "High", "Very High"}
	Likelihoods = []string{"Low", "Medium", "High", "Almost Certain"}
	Proximities = []string{"Remote", "Distant", "Approaching", "Close", "Imminent"}
)
