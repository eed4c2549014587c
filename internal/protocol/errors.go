package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Store layer.
	ErrOutOfBounds = "E_OUT_OF_BOUNDS"
	ErrUnknownKind = "E_UNKNOWN_KIND"
	ErrNotInline   = "E_NOT_INLINE"

	ErrBadRequest = "E_BAD_REQUEST"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrOutOfBounds:     {},
	ErrUnknownKind:     {},
	ErrNotInline:       {},
	ErrBadRequest:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
