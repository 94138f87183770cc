// Package report compares code symbols with document mentions and serializes
// the resulting gap report.
package report

import (
	"github.com/phobologic/gapaudit/internal/model"
)

// Build returns the gap report for the given code symbols and document
// mentions. It has no side effects and the same inputs always produce the
// same report.
func Build(code, doc model.SymbolSet) *model.GapReport {
	undocumented := code.Difference(doc).Sorted()
	unimplemented := doc.Difference(code).Sorted()

	return &model.GapReport{
		Summary: model.Summary{
			TotalCodeEntities:  code.Len(),
			TotalSDDEntities:   doc.Len(),
			UndocumentedCount:  len(undocumented),
			UnimplementedCount: len(unimplemented),
		},
		Undocumented:  undocumented,
		Unimplemented: unimplemented,
	}
}
