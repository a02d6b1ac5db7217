// Package lang implements the parley template language: a document of
// named templates, each producing a string by combining literal text,
// embedded expressions, references to other templates, and conditional
// or alternative branches.
//
// # Source format
//
// A document is plain text. Lines beginning "#name(param1, param2)"
// declare a template with optional parameters. Subsequent lines
// beginning "-" are body alternatives, or conditional branches when they
// begin with "- IF:", "- ELSEIF:", or "- ELSE:". Lines starting with '>'
// or '$' are comments.
//
// Within a body line, "{expr}" embeds an expression evaluated against
// the caller's scope, "[name]" or "[name(args)]" embeds a reference to
// another template, and triple-backtick blocks embed literal multi-line
// text with "@{expr}" substitutions:
//
//	> a greeting with a parametrized name
//	#greet(name)
//	- Hello, {name}!
//	- Hey there, {name}.
//
//	#status(count)
//	- IF: {count == 0} Nothing pending.
//	- ELSE: You have {count} item(s) pending: [summary]
//
// # Evaluation
//
// Parse a document once with [ParseString] or [ParseReader], then render
// with an [Evaluator]:
//
//	doc, err := lang.ParseString(ctx, source)
//	eval := lang.New(doc)
//	out, err := eval.EvaluateTemplate(ctx, "greet",
//		map[string]any{"name": "Ada"})
//
// A normal body selects one alternative uniformly at random; supply
// [WithRandom] for deterministic selection. Expressions are evaluated by
// an expression collaborator ([ExprEvaluator]); the default is backed by
// expr-lang, with custom functions registered via [WithExprFunction].
//
// Evaluation is synchronous and depth-first. The evaluator tracks the
// chain of in-progress templates, so a template referencing itself
// directly or transitively fails with an error enumerating the cycle.
// An Evaluator serves one logical caller; it is not safe for concurrent
// use.
package lang
