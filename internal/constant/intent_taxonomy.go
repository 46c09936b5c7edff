package constant

import "contactiq-be/pkg/pipeline"

// IntentInfo describes one intent for the classifier prompt.
type IntentInfo struct {
	Category    pipeline.Category
	Description string
}

// CustomerIntents is the closed taxonomy for the customer assistant.
var CustomerIntents = map[string]IntentInfo{
	"greeting": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Greetings, hello, hi, small talk, conversational openers",
	},
	"general_conversation": {
		Category:    pipeline.CategoryAutomatable,
		Description: "General conversational queries, follow-ups, clarifications that don't require knowledge base",
	},
	"transaction_explanation": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Questions about transaction details, codes, descriptions",
	},
	"fee_inquiry": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Questions about fees, charges, pricing",
	},
	"account_limits": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Questions about account limits, daily limits, transfer limits",
	},
	"card_dispute_process": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Guidance on disputing card transactions",
	},
	"application_process": {
		Category:    pipeline.CategoryAutomatable,
		Description: "General information about account/product applications",
	},
	"account_balance": {
		Category:    pipeline.CategorySensitive,
		Description: "Account balance inquiries (escalate - needs authentication)",
	},
	"transaction_history": {
		Category:    pipeline.CategorySensitive,
		Description: "Transaction history requests (escalate - needs authentication)",
	},
	"password_reset": {
		Category:    pipeline.CategorySensitive,
		Description: "Password or security-related requests",
	},
	"financial_advice": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Requests for personalized financial advice",
	},
	"complaint": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Formal complaints or grievances",
	},
	"hardship": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Financial hardship indicators",
	},
	"fraud_alert": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Security/fraud concerns",
	},
	"unknown": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Unclassifiable or out-of-scope queries - provide helpful guidance",
	},
}

// BankerIntents is the closed taxonomy for the internal banker assistant.
var BankerIntents = map[string]IntentInfo{
	"greeting": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Greetings, hello, hi, small talk, conversational openers",
	},
	"general_conversation": {
		Category:    pipeline.CategoryAutomatable,
		Description: "General conversational queries, follow-ups, clarifications that don't require knowledge base",
	},
	"policy_lookup": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Looking up bank policies, terms, conditions",
	},
	"process_clarification": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Process steps, workflows, procedures",
	},
	"product_comparison": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Comparing products, features, differences",
	},
	"compliance_phrasing": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Guidance on compliant language, disclaimers",
	},
	"fee_structure": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Fee schedules, pricing information",
	},
	"eligibility_criteria": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Product eligibility requirements",
	},
	"documentation_requirements": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Required documents, forms, procedures",
	},
	"customer_specific_query": {
		Category:    pipeline.CategorySensitive,
		Description: "Questions requiring access to customer data",
	},
	"complex_case": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Complex cases requiring expert judgment",
	},
	"complaint_handling": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Formal complaint procedures",
	},
	"regulatory_question": {
		Category:    pipeline.CategoryHumanOnly,
		Description: "Regulatory or legal questions",
	},
	"unknown": {
		Category:    pipeline.CategoryAutomatable,
		Description: "Unclassifiable or out-of-scope queries - provide helpful guidance",
	},
}

// IntentTaxonomy returns the taxonomy for a validated mode.
func IntentTaxonomy(mode pipeline.Mode) map[string]IntentInfo {
	if mode == pipeline.ModeBanker {
		return BankerIntents
	}
	return CustomerIntents
}

// IntentCategory resolves an intent name within a mode. Unknown names fall
// back to the "unknown" intent's category.
func IntentCategory(mode pipeline.Mode, intentName string) (pipeline.Category, bool) {
	taxonomy := IntentTaxonomy(mode)
	if info, ok := taxonomy[intentName]; ok {
		return info.Category, true
	}
	return taxonomy[IntentUnknown].Category, false
}
