package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Document number prefixes.
const (
	docTypeOrder = "ORD"
	docTypeQuote = "QUO"
)

// nextDocumentNumber issues the next number for a document type within the
// caller's transaction, formatted as PREFIX-YYYY-NNNNNN. Sequences reset each
// calendar year. The upsert serializes concurrent issuers on the sequence
// row, so two commits can never share a number.
func nextDocumentNumber(ctx context.Context, tx pgx.Tx, docType string, now time.Time) (string, error) {
	year := now.Year()
	var n int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value
	`, docType, year).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("failed to advance %s sequence: %w", docType, err)
	}
	return fmt.Sprintf("%s-%d-%06d", docType, year, n), nil
}
