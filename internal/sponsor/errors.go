package sponsor

import (
	"fmt"
	"strings"
)

// ConfigError is fatal: the deployment is misconfigured (bad secret, address
// mismatch, missing value). Never retried; shown verbatim to operators only.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// KeyDecodeError means every decode strategy failed structurally. Treated as
// a configuration error: the stored secret is malformed, not transiently bad.
type KeyDecodeError struct {
	Attempts []error
}

func (e *KeyDecodeError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		msgs[i] = err.Error()
	}
	return "sponsor secret: all decode strategies failed: " + strings.Join(msgs, "; ")
}

// NetworkError wraps a transport failure on a chain round-trip. Transient;
// the caller may retry, this package never does.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InsufficientBalanceError: the beneficiary does not clear the preflight
// threshold. User-actionable; names the beneficiary, not the sponsor.
type InsufficientBalanceError struct {
	Address  string
	Required uint64
	Found    uint64
}

func (e *InsufficientBalanceError) Shortfall() uint64 { return e.Required - e.Found }

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("beneficiary %s: balance %d MIST below required %d MIST (short %d)",
		e.Address, e.Found, e.Required, e.Shortfall())
}

// InsufficientGasError: no sponsor-owned coin clears the gas threshold.
// Found is the largest balance seen (0 when the sponsor owns no coins).
type InsufficientGasError struct {
	Address  string
	Required uint64
	Found    uint64
}

func (e *InsufficientGasError) Shortfall() uint64 { return e.Required - e.Found }

func (e *InsufficientGasError) Error() string {
	return fmt.Sprintf("sponsor %s: no gas coin above %d MIST (largest found %d, short %d)",
		e.Address, e.Required, e.Found, e.Shortfall())
}

// TxFailedError: the chain accepted the submission but rejected execution.
type TxFailedError struct {
	Digest    string
	Status    string
	AbortCode *uint64
	Message   string // translated abort message or generic failure text
}

func (e *TxFailedError) Error() string {
	if e.AbortCode != nil {
		return fmt.Sprintf("transaction %s failed: %s (abort code %d)", e.Digest, e.Message, *e.AbortCode)
	}
	return fmt.Sprintf("transaction %s failed: %s", e.Digest, e.Status)
}
