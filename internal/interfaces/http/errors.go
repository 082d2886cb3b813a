package httpinterface

import (
	"errors"
	"net/http"

	"github.com/paystell/paystell-daemon/internal/core/application"
	"github.com/paystell/paystell-daemon/internal/core/domain"
	"github.com/paystell/paystell-daemon/pkg/replayguard"
	log "github.com/sirupsen/logrus"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errInternal    = errors.New("internal error")

	badRequestErrors = []error{
		errInvalidBody,
		domain.ErrUnsupportedAsset,
		domain.ErrInvalidAmount,
		domain.ErrInvalidAmountRange,
		domain.ErrMissingAddress,
		domain.ErrMissingOwner,
		domain.ErrInvalidMemo,
		domain.ErrInvalidStatus,
		domain.ErrInvalidStatusTransition,
		domain.ErrMissingEnvelope,
		domain.ErrInvalidTransactionType,
		domain.ErrInvalidTopic,
		domain.ErrInvalidEndpoint,
	}
	notFoundErrors = []error{
		domain.ErrDepositNotFound,
		domain.ErrMonitoringConfigNotFound,
		domain.ErrSubscriptionNotFound,
		domain.ErrTransactionNotFound,
	}
	conflictErrors = []error{
		replayguard.ErrTransactionAlreadyProcessed,
		domain.ErrDepositAlreadyExists,
	}

	// messages overriding the error string in responses.
	messages = map[error]string{
		replayguard.ErrTransactionAlreadyProcessed: "Transaction already processed",
	}
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, application.ErrMissingRequester):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotDepositOwner),
		errors.Is(err, domain.ErrNotMonitoringOwner):
		return http.StatusForbidden
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func messageOf(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := messageOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		msg = errInternal.Error()
	}
	writeJSON(w, status, errorResponse{msg})
}
