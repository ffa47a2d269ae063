package core

import "strings"

// Tokenize splits delimited text into rows of fields in a single pass.
//
// Quoted fields may contain commas and line breaks, and a doubled quote
// inside a quoted field yields one literal quote. CR, LF and CRLF all end a
// row, and the last row does not need a trailing line break. Rows whose
// fields are all blank are dropped.
//
// Tokenize never fails. Malformed quoting such as a stray quote in the
// middle of a field or an unterminated quoted field is kept as field text
// on a best-effort basis.
func Tokenize(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		if !blankRow(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c != '"' {
				field.WriteByte(c)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			endRow()
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

// blankRow reports whether every field is empty after trimming.
func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
