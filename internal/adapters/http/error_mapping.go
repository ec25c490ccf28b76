package httpadapter

import (
	"net/http"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case domain.IsKind(err, domain.ErrConversationNotFound):
		return http.StatusNotFound, "conversation_not_found"
	case domain.IsKind(err, domain.ErrClassifier):
		return http.StatusBadGateway, "classifier_failure"
	case domain.IsKind(err, domain.ErrAllSourcesUnavailable):
		return http.StatusServiceUnavailable, "all_sources_unavailable"
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "temporary_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
