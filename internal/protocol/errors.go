package protocol

// Error codes carried by ErrorMsg.
const (
	ErrBadRequest       = "E_BAD_REQUEST"
	ErrMethodNotAllowed = "E_METHOD_NOT_ALLOWED"
	ErrSnapshot         = "E_SNAPSHOT"
	ErrInternal         = "E_INTERNAL"
)
