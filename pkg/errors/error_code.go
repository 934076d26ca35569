package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown  ErrorCode = 1
	ErrCodeInternal ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidRiskPolicy    ErrorCode = 103
	ErrCodeInvalidSampleMode    ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106
	ErrCodeInvalidVersion       ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound       ErrorCode = 200
	ErrCodeQueryFailed        ErrorCode = 201
	ErrCodeJournalUnavailable ErrorCode = 202
	ErrCodeJournalWriteFailed ErrorCode = 203

	// Strategy errors (400-499)
	ErrCodeStrategyAlreadyExists ErrorCode = 400
	ErrCodeStrategyNotFound      ErrorCode = 401
	ErrCodeStrategyConfigError   ErrorCode = 402
	ErrCodeStrategyRuntimeError  ErrorCode = 403
	ErrCodeUnsupportedStrategy   ErrorCode = 404
	ErrCodeVersionMismatch       ErrorCode = 405

	// Trading errors (500-599)
	ErrCodeRiskViolation        ErrorCode = 501
	ErrCodeKillSwitchActive     ErrorCode = 502
	ErrCodeBrokerFailure        ErrorCode = 503
	ErrCodeOrderNotFound        ErrorCode = 505
	ErrCodeMarketDataMissing    ErrorCode = 506
	ErrCodeUnsupportedOperation ErrorCode = 507
	ErrCodeInvalidOrderState    ErrorCode = 508

	// Engine errors (600-699)
	ErrCodeEngineNotRunning ErrorCode = 600
	ErrCodeQueueFull        ErrorCode = 601
	ErrCodeEngineStopped    ErrorCode = 602

	// Feed errors (700-799)
	ErrCodeFeedConnectFailed ErrorCode = 700
	ErrCodeFeedReadFailed    ErrorCode = 701
	ErrCodeFeedParseFailed   ErrorCode = 702
	ErrCodeReplayFailed      ErrorCode = 703
)
