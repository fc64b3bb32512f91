package types

import (
	"errors"
	"net/http"

	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	out := &APIError{Code: string(appErr.CodeOf(err)), Message: err.Error()}

	var ae *appErr.AppError
	if errors.As(err, &ae) {
		out.Message = ae.Message
	}
	var verr *appErr.ValidationError
	if errors.As(err, &verr) {
		out.Details = verr.Sentence()
		out.Fields = verr.Fields
	}
	var batch *appErr.PartialBatchFailure
	if errors.As(err, &batch) {
		out.Message = batch.Error()
	}
	switch appErr.CodeOf(err) {
	case appErr.CodeRevisionNotFound, appErr.CodeTemplate:
		out.Details = err.Error()
	}
	return out
}

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid, appErr.CodeTemplate, appErr.CodePartialFailure:
		return http.StatusUnprocessableEntity
	case appErr.CodeNotFound, appErr.CodeRevisionNotFound:
		return http.StatusNotFound
	case appErr.CodeConflict:
		return http.StatusConflict
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
