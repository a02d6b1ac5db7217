package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/parley/lang"
)

// Check validates the source document and lists its templates.
type Check struct{}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	doc, err := LoadDocument(ctx)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "check"))
	}

	for t := range doc.All() {
		fmt.Printf("%-40s %s %s\n", t.Signature(), describeBody(t.Body), t.Source)
	}

	return nil
}

func describeBody(body lang.Body) string {
	switch b := body.(type) {
	case *lang.NormalBody:
		if n := b.Alternatives(); n != 1 {
			return fmt.Sprintf("%d alternatives", n)
		}

		return "1 alternative "

	case *lang.ConditionalBody:
		return fmt.Sprintf("%d rules", b.Alternatives())

	default:
		return "empty"
	}
}
