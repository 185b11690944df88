package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/infrastructure/postgres/generated"
	"github.com/iho/historycollector/internal/usecase"
)

type generatedDB = generated.DBTX

// queriesFor binds the generated queries to the pgx transaction behind tx.
func queriesFor(tx usecase.Transaction) *generated.Queries {
	return generated.New(tx.(*Tx).PgxTx())
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func memoToPgText(memo *string) pgtype.Text {
	if memo == nil {
		return pgtype.Text{}
	}

	return pgtype.Text{String: domain.MemoText(*memo), Valid: true}
}

// memoToBytes keeps the raw memo, which may not be valid text.
func memoToBytes(memo *string) []byte {
	if memo == nil {
		return nil
	}

	return []byte(*memo)
}
