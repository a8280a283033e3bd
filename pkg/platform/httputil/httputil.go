package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "mcpgate/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates a domain error into a status code and an error body.
// Anything that is not a domain error is reported as an internal error without
// its message.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" && dErrors.KindOf(domainErr.Code) != dErrors.KindSystem {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	}
	switch dErrors.KindOf(code) {
	case dErrors.KindValidation:
		return http.StatusBadRequest
	case dErrors.KindLimitExceeded:
		return http.StatusTooManyRequests
	case dErrors.KindNotFound:
		return http.StatusNotFound
	case dErrors.KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode returns the error string for the JSON body. Session
// lifecycle codes pass through verbatim since clients match on them.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeInvalidClientInfo, dErrors.CodeInvalidCapabilities, dErrors.CodeInvalidConnectionType,
		dErrors.CodeMaxSessionsExceeded, dErrors.CodeCredentialSessionLimit,
		dErrors.CodeSessionExpired, dErrors.CodeSessionInvalid:
		return string(code)
	default:
		return "internal_error"
	}
}
