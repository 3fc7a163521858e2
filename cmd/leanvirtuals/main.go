package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/applicator"
	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/otel"
	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/sdl"
	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/transform"
)

const rootUsage = `leanvirtuals — apply schema virtuals to lean JSON documents

USAGE:
  leanvirtuals <command> [flags]

COMMANDS:
  apply            Apply virtual fields to JSON documents
  inspect          Print the schema tree of an SDL file
  help             Show help for any command
`

const applyUsage = `apply FLAGS:
  -schema <file>          GraphQL SDL schema file (required)
  -root <type>            Root object type in the schema (required)
  -virtuals <spec>        "all" or comma-separated virtual paths, e.g.
                            -virtuals uppercase,childs.uppercaseOther
                          (default: all)
  -in <file>              Input JSON document or array (default: stdin)
  -out <file>             Output file (default: stdout)
  -pretty                 Pretty-print JSON output
  -otel.endpoint <addr>   OTLP collector endpoint
  -otel.service <name>    OpenTelemetry service name (default: leanvirtuals)
`

const inspectUsage = `inspect FLAGS:
  -schema <file>   GraphQL SDL schema file (required)
  -root <type>     Root object type in the schema (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "apply":
		return cmdApply(cmdArgs)
	case "inspect":
		return cmdInspect(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "apply":
		fmt.Print(applyUsage)
	case "inspect":
		fmt.Print(inspectUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdApply(args []string) error {
	schemaFile := ""
	rootType := ""
	virtuals := "all"
	inFile := ""
	outFile := ""
	pretty := false
	otelEndpoint := ""
	otelService := "leanvirtuals"

	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&rootType, "root", rootType, "Root object type")
	fs.StringVar(&virtuals, "virtuals", virtuals, "Virtual selection")
	fs.StringVar(&inFile, "in", inFile, "Input JSON file")
	fs.StringVar(&outFile, "out", outFile, "Output file")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print JSON output")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, applyUsage)
		return err
	}
	if schemaFile == "" || rootType == "" {
		fmt.Fprint(os.Stderr, applyUsage)
		return fmt.Errorf("-schema and -root are required")
	}

	sch, err := loadSchema(schemaFile, rootType)
	if err != nil {
		return err
	}

	target, err := readDocuments(inFile)
	if err != nil {
		return err
	}

	tracer, shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var opts []applicator.Option
	if tracer != nil {
		opts = append(opts, applicator.WithTracer(tracer))
	}
	app := applicator.New(opts...)

	if err := app.Apply(context.Background(), sch, target, parseFilter(virtuals)); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	return writeJSON(outFile, target, pretty)
}

func cmdInspect(args []string) error {
	schemaFile := ""
	rootType := ""
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&rootType, "root", rootType, "Root object type")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, inspectUsage)
		return err
	}
	if schemaFile == "" || rootType == "" {
		fmt.Fprint(os.Stderr, inspectUsage)
		return fmt.Errorf("-schema and -root are required")
	}
	sch, err := loadSchema(schemaFile, rootType)
	if err != nil {
		return err
	}
	fmt.Print(schema.Render(sch))
	return nil
}

func loadSchema(file, root string) (*schema.Schema, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	sch, err := sdl.Load(string(src), root, transform.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return sch, nil
}

func readDocuments(file string) (any, error) {
	var r io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var target any
	if err := json.NewDecoder(r).Decode(&target); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return target, nil
}

func writeJSON(file string, v any, pretty bool) error {
	var w io.Writer = os.Stdout
	if file != "" {
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func parseFilter(spec string) applicator.Filter {
	switch strings.TrimSpace(spec) {
	case "", "all", "true":
		return applicator.All()
	}
	var paths []string
	for _, p := range strings.Split(spec, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return applicator.Pick(paths...)
}
