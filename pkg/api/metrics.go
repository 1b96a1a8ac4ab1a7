package api

import "github.com/cpc-chain/cpcd/pkg/validator"

// rejectionReason extracts the validator's reason category from a mempool
// submit error, falling back to a generic label for non-validation errors
// (e.g. duplicate submission).
func rejectionReason(err error) validator.Reason {
	if verr, ok := err.(*validator.Error); ok {
		return verr.Reason
	}
	return validator.Reason("duplicate_or_internal")
}
