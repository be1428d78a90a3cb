package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is matches on Code so that an Errno carrying a server supplied message
// still satisfies errors.Is against its sentinel.
func (e Errno) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return e.Code == t.Code
	case *Errno:
		return t != nil && e.Code == t.Code
	}
	return false
}

// WithMessage returns a copy of e carrying msg. An empty msg keeps the default.
func (e Errno) WithMessage(msg string) Errno {
	if msg != "" {
		e.Message = msg
	}
	return e
}

// Kind is the error category a code belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindServer
	KindValidation
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TransportFailure"
	case KindServer:
		return "ServerRejected"
	case KindValidation:
		return "ClientValidation"
	case KindAuth:
		return "AuthRequired"
	default:
		return "Unknown"
	}
}

// Kind derives the category from the code range.
func (e Errno) Kind() Kind {
	switch {
	case e.Code >= 10000 && e.Code < 20000:
		return KindTransport
	case e.Code >= 20000 && e.Code < 30000:
		return KindServer
	case e.Code >= 30000 && e.Code < 40000:
		return KindValidation
	case e.Code >= 40000 && e.Code < 50000:
		return KindAuth
	default:
		return KindUnknown
	}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message
	}
	return Unknown.Code, err.Error()
}

// KindOf reports the category of the first Errno found in err's chain.
func KindOf(err error) Kind {
	var typed Errno
	if errors.As(err, &typed) {
		return typed.Kind()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Kind()
	}
	return KindUnknown
}

var (
	OK      = Errno{Code: 0, Message: "Success"}
	Unknown = Errno{Code: 1, Message: "Unknown error"}
)

// Transport errors (10000+): the request never reached the server or the answer could not be read
var (
	ErrTransport   = Errno{Code: 10001, Message: "Network request failed"}
	ErrBadResponse = Errno{Code: 10002, Message: "Unparseable response from server"}
	ErrEncodeBody  = Errno{Code: 10003, Message: "Failed to encode request body"}
)

// Server errors (20000+)
var (
	ErrServerRejected     = Errno{Code: 20001, Message: "Request rejected by server"}
	ErrInvalidCredentials = Errno{Code: 20002, Message: "Invalid username, password or mnemonic"}
	ErrTwoFactorRejected  = Errno{Code: 20003, Message: "2FA code is incorrect"}
)

// Client validation errors (30000+): caught before any network call
var (
	ErrValidation        = Errno{Code: 30001, Message: "Invalid input"}
	ErrEmptyField        = Errno{Code: 30002, Message: "Required field is empty"}
	ErrInvalidAddress    = Errno{Code: 30003, Message: "The address you entered is not a valid wallet address"}
	ErrPasswordMismatch  = Errno{Code: 30004, Message: "Passwords do not match"}
	ErrInvalidAmount     = Errno{Code: 30005, Message: "Amount must be a positive number"}
	ErrInvalidMnemonic   = Errno{Code: 30006, Message: "Mnemonic phrase is not valid"}
	ErrUnknownNetwork    = Errno{Code: 30007, Message: "Unknown network"}
	ErrMnemonicMismatch  = Errno{Code: 30008, Message: "The mnemonic words do not match"}
	ErrInsufficientFunds = Errno{Code: 30009, Message: "Insufficient balance to cover the gas fee"}
	ErrNoPendingAction   = Errno{Code: 30010, Message: "No operation is waiting for 2FA verification"}
)

// Auth errors (40000+)
var (
	ErrAuthRequired = Errno{Code: 40001, Message: "Session token is not available"}
	ErrNoWallet     = Errno{Code: 40002, Message: "No wallet is loaded"}
)
