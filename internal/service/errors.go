package service

import "errors"

// ErrInvalidCandidate is returned by Admit when no candidate was built,
// i.e. the member name or the zone was empty.  The store is not touched.
var ErrInvalidCandidate = errors.New("reservation candidate is not reservable")

// ErrStoreUnavailable wraps every store or lock failure.  The operation
// that returned it had no effect; callers should report a temporary
// failure and must not treat it as "capacity available" or "nothing
// expired".
var ErrStoreUnavailable = errors.New("reservation store unavailable")
