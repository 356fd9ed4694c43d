package types

import "errors"

// Config holds backend selection and ledger parameters for opening a Ledger.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// StrictBalance rejects payments larger than the outstanding balance.
	StrictBalance bool `json:"strict_balance" yaml:"strict_balance"`

	// UpcomingDays is the look-ahead window for upcoming charges. Zero
	// selects DefaultUpcomingDays.
	UpcomingDays int `json:"upcoming_days" yaml:"upcoming_days"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultUpcomingDays is the upcoming-charges window, today included.
const DefaultUpcomingDays = 7

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrUpcomingDaysInvalid = errors.New("upcoming days must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.UpcomingDays < 0 {
		return ErrUpcomingDaysInvalid
	}
	return nil
}

// Window returns the effective upcoming-charges window in days.
func (c Config) Window() int {
	if c.UpcomingDays == 0 {
		return DefaultUpcomingDays
	}
	return c.UpcomingDays
}
