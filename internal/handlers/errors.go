package handlers

import (
	"github.com/edenhall/corecrm/internal/apperror"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondError maps business errors onto HTTP responses. Anything without a
// code is an unexpected failure and must not leak details to the client.
func respondError(c *drift.Context, err error) {
	switch apperror.CodeOf(err) {
	case apperror.CodeInvalidInput:
		c.BadRequest(err.Error())
	case apperror.CodeForbidden:
		c.Forbidden(err.Error())
	case apperror.CodeNotFound:
		c.NotFound(err.Error())
	default:
		c.InternalServerError("internal server error")
	}
}
