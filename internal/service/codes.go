package service

import (
	"fmt"
	"strings"
)

// Identifier formats. Sequences are per scope (category prefix or year) and
// come from the atomic sequences table, so generated codes cannot collide even
// under concurrent creation.
//
//	item code:          {PREFIX3}-{seq:04d}   e.g. OFF-0007
//	transaction number: STX-{year}-{seq:04d}  e.g. STX-2026-0153
//	requisition number: REQ-{year}-{seq:03d}  e.g. REQ-2026-012

// CategoryPrefix derives the 3-letter item code prefix from a category name:
// the first three letters, uppercased, padded with 'X' for short names.
func CategoryPrefix(category string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(category) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}

func ItemSequenceName(prefix string) string { return "item:" + prefix }

func TransactionSequenceName(year int) string { return fmt.Sprintf("stx:%d", year) }

func RequisitionSequenceName(year int) string { return fmt.Sprintf("req:%d", year) }

func FormatItemCode(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%04d", prefix, seq)
}

func FormatTransactionNumber(year int, seq int64) string {
	return fmt.Sprintf("STX-%d-%04d", year, seq)
}

func FormatRequisitionNumber(year int, seq int64) string {
	return fmt.Sprintf("REQ-%d-%03d", year, seq)
}
