// Package exporter renders dataset summaries for download.
//
// Two formats are supported: CSV with a UTF-8 BOM so Excel opens it
// correctly, and a native Excel workbook with one sheet per summary table.
package exporter
