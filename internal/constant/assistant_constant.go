package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Knowledge domain identifiers
	DomainCustomerKB = "customer_kb"
	DomainBankerKB   = "banker_kb"

	// Retrieval defaults
	DefaultTopK       = 5
	DefaultScoreFloor = 0.35

	// Intent names with special handling in the pipeline
	IntentGreeting = "greeting"
	IntentUnknown  = "unknown"
)
