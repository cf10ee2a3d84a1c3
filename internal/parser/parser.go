// Package parser converts between raw transaction log lines and ledger entries.
//
// Accepted lines look like:
//
//	[2024-01-01 10:00:00] alice transferred 50.00 to bob
//	[2024-01-01 10:05:00] bob withdrew 12.50
//	[2024-01-01 10:06:00] bob balance inquiry 37.50
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/models"
)

var linePattern = regexp.MustCompile(
	`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] (\w+) (balance inquiry|transferred|withdrew) (\d+\.\d{2})(?: to (\w+))?$`,
)

// Parse decodes one log line into an Entry. The whole line must match the
// grammar; nothing is trimmed or recovered. The timestamp is read as a zone-less
// wall clock (see models.WallClock), so it never shifts across DST changes.
//
// Two lines the pattern alone would accept are rejected as well: a transfer
// without "to <account>", and any other operation that names one.
func Parse(line string) (models.Entry, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return models.Entry{}, &FormatError{Line: line, Reason: "does not match log grammar"}
	}

	ts, err := time.ParseInLocation(config.TimestampLayout, m[1], time.UTC)
	if err != nil {
		return models.Entry{}, &FormatError{Line: line, Reason: "bad timestamp"}
	}

	amount, err := decimal.NewFromString(m[4])
	if err != nil {
		return models.Entry{}, &FormatError{Line: line, Reason: "bad amount"}
	}

	op := models.Operation(m[3])
	counterparty := m[5]

	switch {
	case op == models.OpTransferred && counterparty == "":
		return models.Entry{}, &FormatError{Line: line, Reason: "transfer without counterparty"}
	case op != models.OpTransferred && counterparty != "":
		return models.Entry{}, &FormatError{Line: line, Reason: fmt.Sprintf("%s cannot name a counterparty", op)}
	}

	return models.Entry{
		Timestamp:    ts,
		Account:      m[2],
		Operation:    op,
		Amount:       amount,
		Counterparty: counterparty,
	}, nil
}

// DeriveReceived builds the mirror entry that a transfer creates on the
// counterparty's ledger.
func DeriveReceived(transfer models.Entry) (models.Entry, error) {
	if transfer.Operation != models.OpTransferred {
		return models.Entry{}, fmt.Errorf("%w: received entry requires a transfer, got %q",
			ErrInvalidOperation, transfer.Operation)
	}

	return models.Entry{
		Timestamp:    transfer.Timestamp,
		Account:      transfer.Counterparty,
		Operation:    models.OpReceived,
		Amount:       transfer.Amount,
		Counterparty: transfer.Account,
	}, nil
}

// Format renders an entry in log line form. Amounts always carry two decimals.
func Format(e models.Entry) string {
	var sb strings.Builder
	sb.Grow(64)

	sb.WriteByte('[')
	sb.WriteString(e.Timestamp.Format(config.TimestampLayout))
	sb.WriteString("] ")
	sb.WriteString(e.Account)
	sb.WriteByte(' ')
	sb.WriteString(string(e.Operation))
	sb.WriteByte(' ')
	sb.WriteString(e.Amount.StringFixed(2))

	switch e.Operation {
	case models.OpTransferred:
		sb.WriteString(" to ")
		sb.WriteString(e.Counterparty)
	case models.OpReceived:
		sb.WriteString(" from ")
		sb.WriteString(e.Counterparty)
	}

	return sb.String()
}
