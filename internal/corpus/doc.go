// Package corpus loads tabular workbooks into the analysis corpus model.
//
// Three sources are provided: Excel workbooks read with excelize, CSV
// files read as a single synthetic sheet, and Google Sheets spreadsheets
// fetched through the Sheets API. All of them produce the same ordered
// sheet/column/value structure and drop columns with no numeric
// interpretation, so the analyzer receives only analyzable columns.
//
// Sources do all their I/O inside Load and return plain values; nothing
// in this package keeps state between calls.
package corpus
