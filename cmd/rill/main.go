package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-faster/jx"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/ir"
	"github.com/rill-lang/rill/parser"
	"github.com/rill-lang/rill/token"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:      "rill",
		Usage:     "rill constant expression evaluator",
		Version:   version,
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "budget",
				Value: 1_000_000,
				Usage: "maximum number of IR nodes to evaluate",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "output format: text, json or yaml",
			},
			&cli.BoolFlag{
				Name:  "deps",
				Usage: "list the constant functions the evaluation depended on",
			},
		},
		Action: mainAction,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func mainAction(ctx *cli.Context) error {
	var inputFile string
	if args := ctx.Args(); args.Len() > 0 {
		inputFile = args.First()
	}
	if inputFile == "" {
		return RunREPL(ctx.Int("budget"), os.Stdin, os.Stdout)
	}
	src, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	return evalFile(inputFile, src, ctx.Int("budget"), ctx.String("format"), ctx.Bool("deps"))
}

type binding struct {
	name  string
	value rill.Value
}

func evalFile(name string, src []byte, budget int, format string, deps bool) error {
	file := token.NewFile(name, len(src))

	parsed, err := parser.Parse(file, src)
	if err != nil {
		return err
	}

	registry := ir.NewRegistry()
	module, err := ir.LowerFile(parsed, registry)
	if err != nil {
		return positionError(file, err)
	}

	interp := ir.NewInterpreter(registry, budget)

	var bindings []binding
	for _, stmt := range module.Stmts {
		if _, outcome := interp.Eval(stmt, ir.Compilation); outcome != nil {
			return outcomeError(file, outcome)
		}
		if decl, ok := stmt.(*ir.Decl); ok {
			if value, ok := interp.Scopes.Get(decl.Name); ok {
				bindings = append(bindings, binding{name: decl.Name, value: value})
			}
		}
	}

	var last rill.Value
	if module.Last != nil {
		value, outcome := interp.Eval(module.Last, ir.Compilation)
		if outcome != nil {
			return outcomeError(file, outcome)
		}
		last = value
	}

	if err := printResults(bindings, last, format); err != nil {
		return err
	}

	if deps {
		for _, id := range registry.Used() {
			fn, ok := registry.ConstFnByID(id)
			if !ok {
				continue
			}
			fmt.Fprintf(os.Stderr, "dep: %s %s\n", id, fn.Path)
		}
	}

	return nil
}

func printResults(bindings []binding, last rill.Value, format string) error {
	switch format {
	case "text":
		for _, b := range bindings {
			fmt.Printf("%s = %s\n", b.name, b.value)
		}
		if last != nil {
			fmt.Println(last)
		}
		return nil
	case "json":
		data, err := marshalJSON(bindings, last)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := marshalYAML(bindings, last)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}
	return fmt.Errorf("unknown output format: %q", format)
}

// marshalJSON encodes the evaluation result: the trailing expression alone
// when the file has one, the object of top-level bindings otherwise.
func marshalJSON(bindings []binding, last rill.Value) ([]byte, error) {
	if last != nil {
		return rill.MarshalJSON(last)
	}

	enc := jx.GetEncoder()
	defer jx.PutEncoder(enc)

	enc.Reset()
	enc.ObjStart()
	for _, b := range bindings {
		data, err := rill.MarshalJSON(b.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		enc.FieldStart(b.name)
		enc.Raw(data)
	}
	enc.ObjEnd()
	return append([]byte(nil), enc.Bytes()...), nil
}

func marshalYAML(bindings []binding, last rill.Value) ([]byte, error) {
	if last != nil {
		value, err := rill.Unwrap(last)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(value)
	}

	values := make(map[string]any, len(bindings))
	for _, b := range bindings {
		value, err := rill.Unwrap(b.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		values[b.name] = value
	}
	return yaml.Marshal(values)
}

// positionError prefixes a lowering error with its source position.
func positionError(file *token.File, err error) error {
	var irErr *ir.Error
	if !errors.As(err, &irErr) {
		return err
	}
	return fmt.Errorf("%s: %s", file.Position(irErr.At.Start), irErr.Err)
}

// outcomeError renders a failed evaluation as a diagnostic. A NotConst
// outcome would be silent inside a compiler; at the command line the
// expression itself was requested, so it is reported.
func outcomeError(file *token.File, outcome ir.Outcome) error {
	switch outcome := outcome.(type) {
	case *ir.NotConst:
		return fmt.Errorf("%s: expression is not constant", file.Position(outcome.At.Start))
	case *ir.Error:
		return fmt.Errorf("%s: %s", file.Position(outcome.At.Start), outcome.Err)
	}
	return fmt.Errorf("evaluation failed: %v", outcome)
}
