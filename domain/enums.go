package domain

// AccountState is a state of the per-account session driver.
type AccountState string

const (
	// AccountStateDisabled is terminal: the account is never contacted again.
	AccountStateDisabled AccountState = "DISABLED"

	// AccountStateCoolingDown means the last quiet pass is within the cooldown window.
	AccountStateCoolingDown AccountState = "COOLING_DOWN"

	// AccountStateAuthenticating means a login attempt is in progress.
	AccountStateAuthenticating AccountState = "AUTHENTICATING"

	// AccountStateRateLimited means the driver is backing off before another login attempt.
	AccountStateRateLimited AccountState = "RATE_LIMITED"

	// AccountStateLoggedIn means a session is established.
	AccountStateLoggedIn AccountState = "LOGGED_IN"

	// AccountStateEnumerating means owned packages and applications are being listed.
	AccountStateEnumerating AccountState = "ENUMERATING"

	// AccountStateScheduling means depots are being checked and tasks started.
	AccountStateScheduling AccountState = "SCHEDULING"

	// AccountStateDraining means the driver waits for its tasks.
	AccountStateDraining AccountState = "DRAINING"

	// AccountStateIdle means the pass finished.
	AccountStateIdle AccountState = "IDLE"

	// AccountStateSkipped means the pass ended early without disabling the account.
	AccountStateSkipped AccountState = "SKIPPED"
)

// String returns the string representation of the AccountState.
func (s AccountState) String() string {
	return string(s)
}

// TaskOutcome is the result of one fetch-and-commit task.
type TaskOutcome string

const (
	// TaskOutcomeCaptured means the depot was committed and tagged.
	TaskOutcomeCaptured TaskOutcome = "CAPTURED"

	// TaskOutcomeDuplicate means the tag already existed when the task got
	// store access, so nothing was written.
	TaskOutcomeDuplicate TaskOutcome = "DUPLICATE"

	// TaskOutcomeUnavailable means the artifact could not be retrieved.
	TaskOutcomeUnavailable TaskOutcome = "UNAVAILABLE"

	// TaskOutcomeFailed means fetching or mutating the store failed.
	TaskOutcomeFailed TaskOutcome = "FAILED"

	// TaskOutcomeAbandoned means the task was interrupted before committing.
	TaskOutcomeAbandoned TaskOutcome = "ABANDONED"
)

// String returns the string representation of the TaskOutcome.
func (o TaskOutcome) String() string {
	return string(o)
}

// BillingType is the upstream package billing type code.
type BillingType int

// BillingTypeBillOnceOrCDKey marks packages that were purchased or activated
// with a key. Only these packages are used to discover applications.
const BillingTypeBillOnceOrCDKey BillingType = 10

// AppType is the upstream application type.
type AppType string

// AppTypeGame is the only application type whose depots are captured.
const AppTypeGame AppType = "game"
