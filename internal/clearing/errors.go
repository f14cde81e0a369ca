package clearing

import "errors"

// Validation failures surfaced to callers before any state mutation. The
// clearinghouse validates fully, then mutates; none of these ever leave
// partial state behind.
var (
	ErrOptionTypeExists       = errors.New("option type already exists")
	ErrExpiryWindowTooShort   = errors.New("expiry must be at least one day out")
	ErrExerciseWindowTooShort = errors.New("exercise window must span at least one day")
	ErrInvalidAssetPair       = errors.New("invalid asset pair")
	ErrUnknownOptionType      = errors.New("unknown option type")
	ErrOptionTypeExpired      = errors.New("option type expired")
	ErrExerciseNotOpen        = errors.New("exercise window not yet open")
	ErrZeroAmount             = errors.New("amount must be nonzero")
	ErrNotClaimOwner          = errors.New("claim not owned by caller")
	ErrInsufficientOptions    = errors.New("insufficient option balance")
	ErrClaimNotRedeemable     = errors.New("claim not yet redeemable")
	ErrTokenNotFound          = errors.New("token not found")
	ErrNotAClaim              = errors.New("token is not a claim")
	ErrNotAnOption            = errors.New("token is not an option")
	ErrDustNotReady           = errors.New("dust not sweepable until all claims redeem")
)
