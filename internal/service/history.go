package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"tuition-credits/internal/model"
)

// HistoryRecord is one flat row of an exported transaction history.
type HistoryRecord struct {
	Date        time.Time    `json:"date"`
	Type        model.TxType `json:"type"`
	TypeLabel   string       `json:"typeLabel"`
	Amount      int64        `json:"amount"`
	Balance     int64        `json:"balance"`
	Description string       `json:"description"`
}

// ExportHistory returns the account's transactions oldest first, with
// descriptions rendered for locale.
func (s *Service) ExportHistory(ctx context.Context, userID string, locale language.Tag) ([]HistoryRecord, error) {
	acct, err := s.engine.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	txs := acct.Chronological()
	records := make([]HistoryRecord, 0, len(txs))
	for _, tx := range txs {
		records = append(records, HistoryRecord{
			Date:        tx.Timestamp,
			Type:        tx.Type,
			TypeLabel:   s.translator.TypeLabel(locale, tx.Type),
			Amount:      tx.Amount,
			Balance:     tx.Balance,
			Description: s.translator.Describe(locale, tx),
		})
	}
	return records, nil
}

var historyHeader = []string{"date", "type", "amount", "balance", "description"}

// WriteHistoryCSV writes records as CSV with a header row.
func WriteHistoryCSV(w io.Writer, records []HistoryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.UTC().Format(time.RFC3339),
			r.TypeLabel,
			strconv.FormatInt(r.Amount, 10),
			strconv.FormatInt(r.Balance, 10),
			r.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
