package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ardnew/parley/lang"
	"github.com/ardnew/parley/log"
)

// sourcesKey is used to store the template source paths in a
// context.Context.
type sourcesKey struct{}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSources returns a new context.Context carrying the template source
// paths selected on the command line.
func WithSources(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, sourcesKey{}, paths)
}

func sourcesFrom(ctx context.Context) []string {
	paths, ok := ctx.Value(sourcesKey{}).([]string)
	if !ok || len(paths) == 0 {
		return []string{stdinSource}
	}

	return paths
}

// LoadDocument parses the template document from the source files in the
// context. Multiple sources are concatenated in order; "-" reads stdin.
func LoadDocument(ctx context.Context) (*lang.Document, error) {
	paths := sourcesFrom(ctx)

	readers := make([]io.Reader, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))

	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	for _, path := range paths {
		if path == stdinSource {
			readers = append(readers, os.Stdin)

			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		readers = append(readers, f)
		closers = append(closers, f)
	}

	return lang.ParseReader(ctx, io.MultiReader(readers...),
		lang.WithSourceLabel(strings.Join(paths, ",")),
		lang.WithParseLogger(log.Default()),
	)
}
