package core

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Export serialization for the transaction table. Both exports share the
// same flat field set; CSV wraps every field in double quotes, the
// printable HTML document escapes instead.

var exportHeader = []string{
	"Date",
	"Type",
	"Category",
	"Description",
	"Amount",
	"Payment Method",
	"Initial Balance",
	"Current Balance",
}

// ExportHeader returns the column names shared by every export format.
func ExportHeader() []string {
	header := make([]string, len(exportHeader))
	copy(header, exportHeader)
	return header
}

// ExportRows projects transactions onto flat export records, one row
// per transaction, without a header.
func ExportRows(txs []Transaction, initial, current decimal.Decimal) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, exportRow(tx, initial, current))
	}
	return rows
}

// exportRow projects a transaction onto the flat export record. The date
// is the raw stored string cut to its first 10 bytes; it is deliberately
// not reparsed, so whatever calendar day storage recorded is the day
// that exports.
func exportRow(t Transaction, initial, current decimal.Decimal) []string {
	date := t.Date
	if len(date) > 10 {
		date = date[:10]
	}
	return []string{
		date,
		string(t.Type),
		t.Category,
		t.Description,
		FormatAmount(t.Amount),
		t.PaymentMethod,
		FormatAmount(initial),
		FormatAmount(current),
	}
}

// TransactionsCSV serializes transactions for download: a header row,
// then one row per transaction, every field double-quote wrapped and
// comma separated, rows joined by newlines. Zero transactions produce a
// header-only document.
//
// Embedded double quotes inside fields are not escaped. That mirrors the
// serialization the existing exports were written against; consumers of
// historical files depend on the byte shape, so it stays unescaped here.
func TransactionsCSV(txs []Transaction, initial, current decimal.Decimal) string {
	lines := make([]string, 0, len(txs)+1)
	lines = append(lines, strings.Join(exportHeader, ","))
	for _, tx := range txs {
		fields := exportRow(tx, initial, current)
		for i, f := range fields {
			fields[i] = `"` + f + `"`
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// CSVFilename is the download filename convention for a given day.
func CSVFilename(now time.Time) string {
	return "transactions-" + now.Format("2006-01-02") + ".csv"
}

const printStyles = `body { font-family: Arial, sans-serif; padding: 16px; }
h1 { font-size: 18px; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 8px; font-size: 12px; text-align: left; }
th { background: #f5f5f5; }`

// TransactionsHTML builds a self-contained printable document with the
// same field set as the CSV export. The environment rendering it is
// expected to trigger print/save-as-PDF itself.
func TransactionsHTML(txs []Transaction, initial, current decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n<style>\n")
	b.WriteString(printStyles)
	b.WriteString("\n</style>\n<title>Transactions Export</title>\n</head>\n<body>\n<h1>Transactions</h1>\n<table>\n<thead>\n<tr>")
	for _, h := range exportHeader {
		b.WriteString("<th>")
		b.WriteString(template.HTMLEscapeString(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, tx := range txs {
		b.WriteString("<tr>")
		for _, f := range exportRow(tx, initial, current) {
			b.WriteString("<td>")
			b.WriteString(template.HTMLEscapeString(f))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n</body>\n</html>\n")
	return b.String()
}
