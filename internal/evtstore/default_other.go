//go:build !windows

package evtstore

import "github.com/SlimIO/Winelog/pkg/errors"

// OpenDefault returns the host event store. Only Windows has one; elsewhere
// callers replay a fixture archive instead.
func OpenDefault() (Store, error) {
	return nil, &StoreError{
		Op:      "open default store",
		Message: "the Windows event store is only available on Windows; replay a fixture archive instead",
		Err:     errors.ErrStoreUnavailable,
	}
}
