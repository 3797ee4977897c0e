package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/nanotree/nanotree/export"
	"github.com/arthur-debert/nanotree/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

func (cli *CLI) format() string {
	return strings.ToLower(cli.viperInst.GetString("format"))
}

// emit writes v as JSON or YAML, or calls text for the text format.
func (cli *CLI) emit(v any, text func(w io.Writer)) error {
	switch f := cli.format(); f {
	case "", "text":
		text(cli.out)
		return nil
	case "json":
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Go through JSON so the json tags decide the keys.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = cli.out.Write(out)
		return err
	default:
		return NewValidationError("render output", "format", f, "Use text, json or yaml")
	}
}

// emitForest writes nodes as an indented outline, or as a document in the
// json and yaml formats.
func (cli *CLI) emitForest(nodes []*types.Node) error {
	switch f := cli.format(); f {
	case "", "text":
		writeTree(cli.out, nodes, 0)
		return nil
	case "json":
		return export.Encode(cli.out, nodes, export.FormatJSON)
	case "yaml":
		return export.Encode(cli.out, nodes, export.FormatYAML)
	default:
		return NewValidationError("render output", "format", f, "Use text, json or yaml")
	}
}

func writeTree(w io.Writer, nodes []*types.Node, depth int) {
	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), nodeLabel(n))
		writeTree(w, n.Children(), depth+1)
	}
}

// nodeLabel renders a node as "0202 CardSlot <Card> Reference -> Card".
func nodeLabel(n *types.Node) string {
	caser := cases.Title(language.English)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s <%s>", n.ID, n.Name, n.Type)
	if n.Layout != types.LayoutNone {
		b.WriteString(" " + caser.String(string(n.Layout)))
	}
	if n.IsReference() {
		fmt.Fprintf(&b, " %s -> %s", caser.String(n.Kind().String()), n.RootType())
	}
	return b.String()
}
