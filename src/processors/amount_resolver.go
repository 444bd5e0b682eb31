package processors

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/models"
)

// amountScale is the fixed number of fractional digits used for all money
// arithmetic and for the canonical amount strings.
const amountScale = 12

// amountFields are the candidate inputs summed into the final amount, in
// resolution order.
var amountFields = []string{"amount", "amount_debit", "amount_credit", "amount_negated"}

// ResolveAmount collapses the candidate amount fields of a record into a
// single signed amount and assigns the transaction type. A field counts only
// when it is non-empty, not the literal "0" and not decimal zero. When no
// field counts, or the sum is exactly zero, the record is returned untouched
// apart from the dropped modifier, no type is assigned, and the warning
// explains why; callers must surface an unresolved amount, never coerce it.
func ResolveAmount(record map[string]string) (map[string]string, string) {
	modifier := decimal.NewFromInt(1)
	if raw, ok := record["amount_modifier"]; ok && strings.TrimSpace(raw) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err == nil {
			modifier = parsed
		} else {
			logger.L.Warn("Ignoring unparseable amount modifier", "value", raw)
		}
	}

	sum := decimal.Zero
	anyValid := false
	for _, field := range amountFields {
		value, ok := validAmount(record[field])
		if !ok {
			continue
		}
		sum = sum.Add(value)
		anyValid = true
	}

	if !anyValid || sum.IsZero() {
		delete(record, "amount_modifier")
		warning := "no valid amount fields found"
		if anyValid {
			warning = "amount fields sum to zero"
		}
		logger.L.Warn("Could not resolve amount", "reason", warning)
		return record, warning
	}

	final := sum.Mul(modifier)
	record["amount"] = final.StringFixed(amountScale)
	if foreign, ok := validAmount(record["foreign_amount"]); ok {
		record["foreign_amount"] = foreign.Mul(modifier).StringFixed(amountScale)
	}
	delete(record, "amount_debit")
	delete(record, "amount_credit")
	delete(record, "amount_negated")
	delete(record, "amount_modifier")

	if final.IsNegative() {
		record["type"] = models.TransactionTypeWithdrawal
	} else {
		record["type"] = models.TransactionTypeDeposit
	}
	return record, ""
}

// validAmount parses value and reports whether it counts toward the sum.
func validAmount(value string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "0" {
		return decimal.Zero, false
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		logger.L.Warn(fmt.Sprintf("Skipping unparseable amount field %q", value))
		return decimal.Zero, false
	}
	if parsed.IsZero() {
		return decimal.Zero, false
	}
	return parsed, true
}
