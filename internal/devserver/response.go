package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes {"success":true, ...fields}. The wallet backend answers with flat
// objects rather than a data envelope.
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes {"success":false,"error":msg} with the given status.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// Error maps a State error onto a status code.
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials):
		Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrWrongKey):
		Fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrNetworkExists):
		Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficient), errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrUnknownNetwork), errors.Is(err, ErrNoWallet):
		Fail(c, http.StatusBadRequest, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, err.Error())
	}
}
