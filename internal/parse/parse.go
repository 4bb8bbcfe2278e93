// Package parse turns the extracted text of a monthly pairing document into
// validated pairing records. It owns the per-block tokenizer, the token
// merge-recovery rules for extractor mis-splits, and the record assembler;
// segmentation lives in internal/segment and the final field validation in
// internal/validate.
//
// A parse run either returns the complete validated document or the first
// error encountered; no partial pairing list survives a failure.
package parse

import (
	"github.com/DaveBC/pairings/internal/pairing"
	"github.com/DaveBC/pairings/internal/segment"
	"github.com/DaveBC/pairings/internal/validate"
)

// Document parses one pairing document, supplied as its extracted text
// lines concatenated in page then row order. The first line must be the
// document title; each `=`-delimited block yields exactly one pairing.
func Document(lines []string) (*pairing.Document, error) {
	if len(lines) == 0 {
		return nil, pairing.Errorf(pairing.DocumentHeader, "title", "a document title line", "empty document")
	}
	header, err := segment.ParseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	doc := &pairing.Document{
		MonthCode: header.MonthCode,
		Year:      header.Year,
		Codeshare: header.Codeshare,
	}

	for _, block := range segment.Blocks(lines) {
		p, err := parseBlock(block, header.Codeshare)
		if err != nil {
			return nil, err
		}
		doc.Pairings = append(doc.Pairings, *p)
	}

	if err := validate.Document(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
