package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/parley/lang"
	"github.com/ardnew/parley/log"
)

// Render renders a named template against scope data loaded from a YAML
// file.
type Render struct {
	Name string  `arg:"" help:"Template name to render"                               name:"name"`
	Data string  `       help:"YAML file providing the scope data"        short:"d"               type:"existingfile"`
	Seed *uint64 `       help:"Seed for reproducible alternative selection"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	doc, err := LoadDocument(ctx)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "render"))
	}

	var scope any

	if r.Data != "" {
		data, err := os.ReadFile(r.Data)
		if err != nil {
			return err
		}

		if err := yaml.Unmarshal(data, &scope); err != nil {
			return lang.WrapError(err).
				With(slog.String("data", r.Data))
		}
	}

	opts := []lang.Option{lang.WithLogger(log.Default())}

	if r.Seed != nil {
		rng := rand.New(rand.NewPCG(*r.Seed, 0))
		opts = append(opts, lang.WithRandom(rng.IntN))
	}

	out, err := lang.New(doc, opts...).EvaluateTemplate(ctx, r.Name, scope)
	if err != nil {
		return lang.WrapError(err).
			With(
				slog.String("command", "render"),
				slog.String("template", r.Name),
			)
	}

	fmt.Println(out)

	return nil
}
