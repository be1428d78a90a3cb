package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"wallet-client/pkg/errno"
)

// evmAddressRegex 只接受 0x 前缀 + 40 位十六进制
var evmAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

var (
	validate *validator.Validate
	once     sync.Once
)

// Init builds the shared validator and registers the wallet specific tags:
//
//	evm_address      0x-prefixed 40 hex characters
//	mnemonic         12, 15, 18, 21 or 24 words (the checksum is left to the backend)
//	positive_amount  a decimal number greater than zero
func Init() {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("evm_address", func(fl validator.FieldLevel) bool {
			return IsEVMAddress(fl.Field().String())
		})
		_ = v.RegisterValidation("mnemonic", func(fl validator.FieldLevel) bool {
			return IsMnemonicShape(fl.Field().String())
		})
		_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(NormalizeAmount(fl.Field().String()))
			return err == nil && d.IsPositive()
		})
		validate = v
	})
}

// IsEVMAddress reports whether s is a 0x-prefixed 20 byte hex address.
func IsEVMAddress(s string) bool {
	return evmAddressRegex.MatchString(s)
}

// NormalizeAmount accepts a comma as decimal separator, the way numeric
// keyboards in some locales produce it.
func NormalizeAmount(s string) string {
	return strings.Replace(strings.TrimSpace(s), ",", ".", 1)
}

// IsMnemonicShape reports whether s has a BIP-39 word count. Wordlist and
// checksum are not checked, so phrases in any language pass through.
func IsMnemonicShape(s string) bool {
	switch len(strings.Fields(s)) {
	case 12, 15, 18, 21, 24:
		return true
	}
	return false
}

// NormalizeMnemonic collapses whitespace between words.
func NormalizeMnemonic(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tag -> errno, in priority order: empty fields are reported before format problems
var tagPriority = []struct {
	tag string
	err errno.Errno
}{
	{"required", errno.ErrEmptyField},
	{"eqfield", errno.ErrPasswordMismatch},
	{"evm_address", errno.ErrInvalidAddress},
	{"positive_amount", errno.ErrInvalidAmount},
	{"mnemonic", errno.ErrInvalidMnemonic},
}

// Struct validates s and converts the failure into an errno.Errno of the
// ClientValidation kind whose message lists every failing field.
func Struct(s interface{}) error {
	Init()
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errno.ErrValidation.WithMessage(err.Error())
	}

	result := errno.ErrValidation
	found := false
	for _, p := range tagPriority {
		for _, e := range validationErrors {
			if e.Tag() == p.tag {
				result = p.err
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	return result.WithMessage(GetErrorMsg(validationErrors))
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Field()
			param := e.Param()

			switch e.Tag() {
			case "required":
				errMsgs = append(errMsgs, fmt.Sprintf("%s cannot be empty", field))
			case "eqfield":
				errMsgs = append(errMsgs, fmt.Sprintf("%s does not match %s", field, param))
			case "evm_address":
				errMsgs = append(errMsgs, fmt.Sprintf("%s is not a valid wallet address", field))
			case "positive_amount":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must be a positive number", field))
			case "mnemonic":
				errMsgs = append(errMsgs, fmt.Sprintf("%s is not a valid mnemonic phrase", field))
			case "min":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must be at least %s characters", field, param))
			case "numeric":
				errMsgs = append(errMsgs, fmt.Sprintf("%s must contain digits only", field))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s failed validation (%s)", field, e.Tag()))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "invalid request parameters"
}
