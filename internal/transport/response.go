package transport

import (
	"errors"
	"net/http"

	"compucobano/internal/domain"
	"compucobano/internal/middleware"

	"go.uber.org/zap"
)

// SuccessResponse is the envelope of every successful admin call.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondWithData(w http.ResponseWriter, statusCode int, data interface{}) {
	middleware.RespondWithJSON(w, statusCode, SuccessResponse{Success: true, Data: data})
}

func respondWithMessage(w http.ResponseWriter, message string) {
	middleware.RespondWithJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// StatusFor maps a classified catalog error onto its HTTP status. Every
// foreign key failure is a 400 whichever side of the reference it hit; the
// kind still tells a blocked delete apart through its message.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidReference, domain.KindReferentialConflict:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindDuplicateKey:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorResponder writes catalog errors. Internal causes are only exposed
// through details outside production.
type errorResponder struct {
	logger        *zap.Logger
	exposeDetails bool
}

func (e errorResponder) respond(w http.ResponseWriter, op string, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		domainErr = domain.Wrap(domain.KindInternal, err)
	}

	status := StatusFor(domainErr.Kind)
	switch {
	case domainErr.Kind == domain.KindValidation && domainErr.Field != "":
		middleware.RespondWithErrorDetails(w, status, domainErr.Message, []middleware.ValidationError{
			{Field: domainErr.Field, Message: domainErr.Message},
		})
	case status == http.StatusInternalServerError:
		e.logger.Error("Catalog operation failed", zap.String("op", op), zap.Error(err))
		if e.exposeDetails && domainErr.Err != nil {
			middleware.RespondWithErrorDetails(w, status, domainErr.Message, domainErr.Err.Error())
			return
		}
		middleware.RespondWithError(w, status, domainErr.Message)
	default:
		e.logger.Debug("Catalog operation rejected",
			zap.String("op", op),
			zap.String("kind", string(domainErr.Kind)),
			zap.Error(err),
		)
		middleware.RespondWithError(w, status, domainErr.Message)
	}
}
