package application

import (
	"strings"

	"github.com/paystell/paystell-daemon/internal/core/domain"
)

func parseDraft(
	requester Requester, req SubmitTransactionReq,
) (domain.TransactionDraft, error) {
	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return domain.TransactionDraft{}, err
	}
	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		return domain.TransactionDraft{}, err
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return domain.TransactionDraft{}, err
	}
	if amount == nil {
		return domain.TransactionDraft{}, domain.ErrInvalidAmount
	}

	draft := domain.TransactionDraft{
		OwnerID: requester.UserID,
		Type:    txType,
		Amount:  *amount,
		Asset:   asset,
	}
	return draft, draft.Validate()
}

func joinCodes(codes []string) string {
	if len(codes) <= 0 {
		return ""
	}
	return strings.Join(codes, ",")
}
