package lending

import "fmt"

// Config holds the lending policy. A zero limit disables that check.
type Config struct {
	MaxBorrowDays   int  `yaml:"max_borrow_days"`
	MaxItemsPerUser int  `yaml:"max_items_per_user"`
	AutoApproval    bool `yaml:"auto_approval"`
}

// DefaultConfig enforces no limits; operators opt in through configuration.
func DefaultConfig() Config { return Config{} }

func (c Config) Validate() error {
	if c.MaxBorrowDays < 0 {
		return fmt.Errorf("max_borrow_days must not be negative")
	}
	if c.MaxItemsPerUser < 0 {
		return fmt.Errorf("max_items_per_user must not be negative")
	}
	return nil
}
