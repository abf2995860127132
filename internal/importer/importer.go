// Package importer loads question banks from CSV files.
package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/memoir/internal/store"
)

// Parse reads question texts from the first column of a headerless CSV.
// Blank cells and spreadsheet placeholders ("nan", "null") are skipped.
// A leading UTF-8 byte order mark is ignored.
func Parse(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\ufeff" {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		text := strings.TrimSpace(rec[0])
		switch strings.ToLower(text) {
		case "", "nan", "null":
			continue
		}
		out = append(out, text)
	}
	return out, nil
}

// TxRunner runs fn inside a store transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store.Repo) error) error
}

// Result counts what an import did.
type Result struct {
	Added   int
	Skipped int // already present, in the store or earlier in the file
}

// Import adds each text not already in the question bank, in file order,
// in one transaction. Existing questions are never removed because
// answers reference them.
func Import(ctx context.Context, tx TxRunner, texts []string) (Result, error) {
	var res Result
	err := tx.RunInTx(ctx, func(r store.Repo) error {
		res = Result{}
		existing, err := r.GetQuestions(ctx, store.QuestionFilter{})
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing)+len(texts))
		for _, q := range existing {
			seen[q.Text] = true
		}
		for _, text := range texts {
			if seen[text] {
				res.Skipped++
				continue
			}
			seen[text] = true
			if err := r.AddQuestion(ctx, &store.Question{Text: text}); err != nil {
				return fmt.Errorf("import %q: %w", text, err)
			}
			res.Added++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
