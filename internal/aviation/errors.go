package aviation

import "errors"

// Kind classifies a gateway failure. Callers pattern-match on it to decide
// user-facing messaging; no raw transport error crosses this boundary.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindNetwork
	KindUpstream
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindUpstream:
		return "upstream"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// User-facing messages, in the application's locale.
const (
	MsgTimeout  = "La solicitud ha tardado demasiado. Intenta nuevamente."
	MsgNetwork  = "Error de conexión. Por favor, verifica tu conexión a internet."
	MsgUpstream = "Error al obtener los datos. Intenta nuevamente."
	MsgNotFound = "No se encontraron resultados."
)

// Error is the single tagged error type surfaced by the gateway. Code and
// Status carry upstream detail when the response was parseable.
type Error struct {
	Kind    Kind
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// AsError unwraps err into *Error when the gateway produced it.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func timeoutError() *Error {
	return &Error{Kind: KindTimeout, Code: "TIMEOUT", Message: MsgTimeout}
}

func networkError() *Error {
	return &Error{Kind: KindNetwork, Code: "NETWORK_ERROR", Message: MsgNetwork}
}

func upstreamError(code, message string, status int) *Error {
	if code == "" {
		code = "UNKNOWN_ERROR"
	}
	if message == "" {
		message = MsgUpstream
	}
	return &Error{Kind: KindUpstream, Code: code, Status: status, Message: message}
}

func notFoundError() *Error {
	return &Error{Kind: KindUpstream, Code: "NOT_FOUND", Status: 404, Message: MsgNotFound}
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}
