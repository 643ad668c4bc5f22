package audithook

// Action constants for audit events.
const (
	// Token actions
	ActionTokenCreated    = "token.created"
	ActionSettingsUpdated = "token.settings_updated"

	// Balance actions
	ActionTransfer = "transfer.completed"
	ActionIssuance = "issuance.minted"
	ActionExchange = "exchange.completed"

	// Periodic actions
	ActionDecayApplied = "decay.applied"
	ActionBonusIssued  = "bonus.issued"

	// Engine actions
	ActionEngineStopped = "engine.stopped"
)

// Resource constants for audit events.
const (
	ResourceToken    = "token"
	ResourceSettings = "settings"
	ResourceBalance  = "balance"
	ResourceSupply   = "supply"
	ResourceEngine   = "engine"
)

// Category constants for audit events.
const (
	CategoryGovernance = "governance"
	CategoryPayment    = "payment"
	CategoryMonetary   = "monetary"
	CategorySystem     = "system"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
