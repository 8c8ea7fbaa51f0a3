package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/erraggy/refdict"
	"github.com/erraggy/refdict/internal/mcpserver"
	"go.yaml.in/yaml/v4"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("refdict v%s\n", refdict.Version())
	case "help", "-h", "--help":
		printUsage()
	case "resolve":
		if err := handleResolve(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "materialize":
		if err := handleMaterialize(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "query":
		if err := handleQuery(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := handleMCP(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// resolveFlags contains flags for the resolve command
type resolveFlags struct {
	defaultValue string
	hasDefault   bool
}

func setupResolveFlags() (*flag.FlagSet, *resolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &resolveFlags{}

	fs.Func("default", "YAML value to return when the path does not exist", func(v string) error {
		flags.defaultValue = v
		flags.hasDefault = true
		return nil
	})

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: refdict resolve [flags] <address>\n\n")
		_, _ = fmt.Fprintf(output, "Resolve an address through a document, following $ref references.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  refdict resolve schemas/master.yaml#/definitions/pet\n")
		_, _ = fmt.Fprintf(output, "  refdict resolve --default '{}' schemas/master.yaml#/definitions/maybe\n")
		_, _ = fmt.Fprintf(output, "  refdict resolve https://example.com/api.json#/components/schemas\n")
	}

	return fs, flags
}

func handleResolve(args []string) error {
	fs, flags := setupResolveFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("resolve command requires exactly one address")
	}

	addr, err := refdict.ParseAddress(fs.Arg(0))
	if err != nil {
		return err
	}

	res := refdict.Default()
	var resolution refdict.Resolution
	if flags.hasDefault {
		var def any
		if err := yaml.Unmarshal([]byte(flags.defaultValue), &def); err != nil {
			return fmt.Errorf("parsing default value: %w", err)
		}
		resolution, err = res.ResolveDefault(addr, def)
	} else {
		resolution, err = res.Resolve(addr)
	}
	if err != nil {
		return err
	}

	fmt.Printf("# %s\n", resolution.Address.String())
	data, err := yaml.Marshal(resolution.Value)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

// materializeFlags contains flags for the materialize command
type materializeFlags struct {
	format  string
	include string
	exclude string
	output  string
}

func setupMaterializeFlags() (*flag.FlagSet, *materializeFlags) {
	fs := flag.NewFlagSet("materialize", flag.ContinueOnError)
	flags := &materializeFlags{}

	fs.StringVar(&flags.format, "format", "yaml", "output format: yaml or json")
	fs.StringVar(&flags.include, "include", "", "comma-separated mapping keys to keep (applies at every level)")
	fs.StringVar(&flags.exclude, "exclude", "", "comma-separated mapping keys to drop (wins over --include)")
	fs.StringVar(&flags.output, "o", "", "write output to file instead of stdout")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: refdict materialize [flags] <address>\n\n")
		_, _ = fmt.Fprintf(output, "Expand a document subtree with every $ref replaced by its target.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  refdict materialize schemas/master.yaml#/definitions\n")
		_, _ = fmt.Fprintf(output, "  refdict materialize --format json -o expanded.json schemas/master.yaml#/\n")
		_, _ = fmt.Fprintf(output, "  refdict materialize --exclude description,examples schemas/master.yaml#/definitions\n")
	}

	return fs, flags
}

func handleMaterialize(args []string) error {
	fs, flags := setupMaterializeFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("materialize command requires exactly one address")
	}
	if flags.format != "yaml" && flags.format != "json" {
		return fmt.Errorf("invalid format %q; valid values: yaml, json", flags.format)
	}

	view, err := refdict.Open(fs.Arg(0))
	if err != nil {
		return err
	}

	var opts []refdict.MaterializeOption
	if keys := splitKeys(flags.include); len(keys) > 0 {
		opts = append(opts, refdict.WithIncludeKeys(keys...))
	}
	if keys := splitKeys(flags.exclude); len(keys) > 0 {
		opts = append(opts, refdict.WithExcludeKeys(keys...))
	}

	doc, cyclic, err := refdict.MaterializeTracked(view, opts...)
	if err != nil {
		return err
	}
	if cyclic {
		return fmt.Errorf("document at %s contains a reference cycle and cannot be serialized", view.Address().String())
	}

	var data []byte
	if flags.format == "json" {
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if flags.output != "" {
		if err := os.WriteFile(flags.output, data, 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Printf("Wrote %s\n", flags.output)
		return nil
	}
	fmt.Print(string(data))
	return nil
}

// queryFlags contains flags for the query command
type queryFlags struct {
	limit int
}

func setupQueryFlags() (*flag.FlagSet, *queryFlags) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	flags := &queryFlags{}

	fs.IntVar(&flags.limit, "limit", 0, "maximum number of matches to print (0 prints all)")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: refdict query [flags] <address> <expression>\n\n")
		_, _ = fmt.Fprintf(output, "Evaluate a JSONPath expression against a subtree with all $refs expanded.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  refdict query schemas/master.yaml#/definitions '$..type'\n")
		_, _ = fmt.Fprintf(output, "  refdict query --limit 5 schemas/master.yaml#/ '$.definitions.*.properties'\n")
	}

	return fs, flags
}

func handleQuery(args []string) error {
	fs, flags := setupQueryFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("query command requires an address and an expression")
	}

	view, err := refdict.Open(fs.Arg(0))
	if err != nil {
		return err
	}

	matches, err := refdict.Query(view, fs.Arg(1))
	if err != nil {
		return err
	}

	total := len(matches)
	if flags.limit > 0 && len(matches) > flags.limit {
		matches = matches[:flags.limit]
	}

	for i, match := range matches {
		data, err := yaml.Marshal(match)
		if err != nil {
			return fmt.Errorf("encoding match: %w", err)
		}
		fmt.Printf("--- match %d of %d\n", i+1, total)
		fmt.Print(string(data))
	}
	if total == 0 {
		fmt.Println("No matches.")
	}
	return nil
}

func handleMCP() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx)
}

// splitKeys splits a comma-separated flag value, dropping empty entries.
func splitKeys(value string) []string {
	if value == "" {
		return nil
	}
	var keys []string
	for _, key := range strings.Split(value, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func printUsage() {
	fmt.Println(`refdict - JSON/YAML $ref resolution tools

Usage:
  refdict <command> [options]

Commands:
  resolve      Resolve an address through a document, following $ref references
  materialize  Expand a subtree into plain YAML/JSON with all $refs replaced
  query        Evaluate a JSONPath expression against an expanded subtree
  mcp          Run the MCP server over stdio
  version      Show version information
  help         Show this help message

Examples:
  refdict resolve schemas/master.yaml#/definitions/pet
  refdict materialize --format json schemas/master.yaml#/definitions
  refdict query schemas/master.yaml#/definitions '$..type'
  refdict mcp

Run 'refdict <command> --help' for more information on a command.`)
}
