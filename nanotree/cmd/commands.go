package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"sort"
	"strings"

	"github.com/arthur-debert/nanotree/nanotree"
	"github.com/arthur-debert/nanotree/nanotree/export"
	"github.com/arthur-debert/nanotree/types"
	"github.com/spf13/cobra"
)

func (cli *CLI) addShowCommand() {
	cmd := &cobra.Command{
		Use:   "show [node-id]",
		Short: "Print the document, or the subtree of one node",
		Long: `Print the document as an indented outline (or as json/yaml with --format).

With --expand, reference nodes are shown with the children of the type they
embed. With --digest only the blake3 digest of the document is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, _ := cmd.Flags().GetBool("digest")
			expand, _ := cmd.Flags().GetBool("expand")

			return cli.withEditor("show", func(ed *nanotree.Editor) error {
				if digest {
					sum, err := ed.Digest()
					if err != nil {
						return err
					}
					cli.printf("%s\n", sum)
					return nil
				}

				s := ed.Session()
				nodes := s.Forest()
				if len(args) == 1 {
					nodes = []*types.Node{nil}
					if expand {
						n, err := s.Expand(args[0])
						if err != nil {
							return err
						}
						nodes[0] = n
					} else {
						n, ok := s.FindNode(args[0])
						if !ok {
							return types.NewNotFoundError("show", args[0])
						}
						nodes[0] = n
					}
				} else if expand {
					for i, root := range nodes {
						n, err := s.Expand(root.ID)
						if err != nil {
							return err
						}
						nodes[i] = n
					}
				}
				return cli.emitForest(nodes)
			})
		},
	}
	cmd.Flags().Bool("digest", false, "Print the document digest only")
	cmd.Flags().Bool("expand", false, "Inline the children of referenced types")
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addTypesCommand() {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the types defined by named roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withEditor("list types", func(ed *nanotree.Editor) error {
				names := ed.Session().Types()
				return cli.emit(names, func(w io.Writer) {
					for _, name := range names {
						_, _ = fmt.Fprintln(w, name)
					}
				})
			})
		},
	}
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addCanSelectCommand() {
	cmd := &cobra.Command{
		Use:   "can-select <node-id> <type>",
		Short: "Check whether a reference node may embed a type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withEditor("check type", func(ed *nanotree.Editor) error {
				d := ed.Session().CanSelectType(args[0], args[1])
				return cli.emit(d, func(w io.Writer) {
					if d.Allowed {
						_, _ = fmt.Fprintln(w, "allowed")
						return
					}
					_, _ = fmt.Fprintf(w, "denied: %s\n", d.Reason)
				})
			})
		},
	}
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addLintCommand() {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report stale references, reference cycles and duplicate types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var errorCount int
			err := cli.withEditor("lint", func(ed *nanotree.Editor) error {
				diags := ed.Session().Diagnostics()
				if diags == nil {
					diags = []types.Diagnostic{}
				}
				for _, d := range diags {
					if d.Severity == types.SeverityError {
						errorCount++
					}
				}
				return cli.emit(diags, func(w io.Writer) {
					for _, d := range diags {
						_, _ = fmt.Fprintln(w, d.String())
					}
					if len(diags) == 0 && !cli.viperInst.GetBool("quiet") {
						_, _ = fmt.Fprintln(w, "no findings")
					}
				})
			})
			if err != nil {
				return err
			}
			if errorCount > 0 {
				return &CLIError{
					Operation: "lint",
					Cause:     fmt.Sprintf("%d error(s) found", errorCount),
				}
			}
			return nil
		},
	}
	cli.rootCmd.AddCommand(cmd)
}

// addNodeFlags declares the flags describing a new node.
func addNodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Node name (required)")
	cmd.Flags().String("type", "", "Node type (defaults to the name, or to --ref)")
	cmd.Flags().String("layout", "", "Child layout: vertical|horizontal")
	cmd.Flags().String("ref", "", "Make a reference node embedding this type")
	cmd.Flags().StringArray("set", nil, "Attribute as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("name")
}

func nodeFromFlags(cmd *cobra.Command, id string) (*types.Node, error) {
	name, _ := cmd.Flags().GetString("name")
	typ, _ := cmd.Flags().GetString("type")
	ref, _ := cmd.Flags().GetString("ref")
	set, _ := cmd.Flags().GetStringArray("set")

	layout, err := layoutFlag(cmd)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(set)
	if err != nil {
		return nil, err
	}

	var n *types.Node
	if ref != "" {
		if typ == "" {
			typ = ref
		}
		n = types.NewReference(id, name, typ, ref)
	} else {
		if typ == "" {
			typ = name
		}
		n = types.NewStandard(id, name, typ)
	}
	n.Layout = layout
	if len(attrs) > 0 {
		n.Attributes = attrs
	}
	return n, nil
}

func layoutFlag(cmd *cobra.Command) (types.Layout, error) {
	s, _ := cmd.Flags().GetString("layout")
	layout := types.Layout(strings.ToLower(s))
	if !layout.Valid() {
		return "", NewValidationError(cmd.Name(), "layout", s, "Use vertical or horizontal")
	}
	return layout, nil
}

// parseAttributes turns key=value pairs into attributes. Values that parse
// as JSON (numbers, booleans, quoted strings, objects) keep their JSON
// type; anything else is a string.
func parseAttributes(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, NewValidationError("parse attributes", "attribute", pair, "Use --set key=value")
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		attrs[key] = v
	}
	return attrs, nil
}

func (cli *CLI) addAddRootCommand() {
	cmd := &cobra.Command{
		Use:   "add-root",
		Short: "Append a root node, defining a new type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withEditor("add root", func(ed *nanotree.Editor) error {
				s := ed.Session()
				id, err := s.NextRootID()
				if err != nil {
					return err
				}
				n, err := nodeFromFlags(cmd, id)
				if err != nil {
					return err
				}
				if err := s.AddRoot(n); err != nil {
					return err
				}
				cli.printf("%s\n", id)
				return nil
			})
		},
	}
	addNodeFlags(cmd)
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addAddChildCommand() {
	cmd := &cobra.Command{
		Use:   "add-child <parent-id>",
		Short: "Append a child node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID := args[0]
			return cli.withEditor("add child", func(ed *nanotree.Editor) error {
				s := ed.Session()
				id, err := s.NextChildID(parentID)
				if err != nil {
					return err
				}
				n, err := nodeFromFlags(cmd, id)
				if err != nil {
					return err
				}
				if err := s.AddChild(parentID, n); err != nil {
					return err
				}
				cli.printf("%s\n", id)
				return nil
			})
		},
	}
	addNodeFlags(cmd)
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addUpdateCommand() {
	cmd := &cobra.Command{
		Use:   "update <node-id>",
		Short: "Change fields of a node",
		Long: `Change fields of a node. Flags set single fields; --set and --unset edit
attributes one key at a time. --json takes a partial update object (or
@file, or - for stdin), for example:

  nanotree update 0101 --json '{"constraintPackages": []}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return cli.withEditor("update", func(ed *nanotree.Editor) error {
				s := ed.Session()
				u, err := cli.updateFromFlags(cmd, s, id)
				if err != nil {
					return err
				}
				if u.IsEmpty() {
					return &CLIError{
						Cause:       "nothing to update",
						Suggestions: []string{"Pass --name, --type, --layout, --ref, --set, --unset or --json"},
					}
				}
				return s.UpdateNode(id, u)
			})
		},
	}
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("type", "", "New type")
	cmd.Flags().String("layout", "", "New layout: vertical|horizontal, empty for none")
	cmd.Flags().String("ref", "", "New referenced type (reference nodes only)")
	cmd.Flags().StringArray("set", nil, "Set an attribute as key=value (repeatable)")
	cmd.Flags().StringSlice("unset", nil, "Remove attributes")
	cmd.Flags().String("json", "", "Partial update as JSON, @file or -")
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) updateFromFlags(cmd *cobra.Command, s *nanotree.Session, id string) (types.NodeUpdate, error) {
	var u types.NodeUpdate
	flags := cmd.Flags()

	if raw, _ := flags.GetString("json"); raw != "" {
		data := []byte(raw)
		if raw == "-" || strings.HasPrefix(raw, "@") {
			var err error
			if data, err = cli.readInput(strings.TrimPrefix(raw, "@")); err != nil {
				return u, err
			}
		}
		if err := json.Unmarshal(data, &u); err != nil {
			return u, NewValidationError("update", "json", raw, "Pass a JSON object such as {\"name\":\"Title\"}")
		}
	}

	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		u.Name = &v
	}
	if flags.Changed("type") {
		v, _ := flags.GetString("type")
		u.Type = &v
	}
	if flags.Changed("layout") {
		layout, err := layoutFlag(cmd)
		if err != nil {
			return u, err
		}
		u.Layout = &layout
	}
	if flags.Changed("ref") {
		v, _ := flags.GetString("ref")
		u.ReferencedRootType = &v
	}

	set, _ := flags.GetStringArray("set")
	unset, _ := flags.GetStringSlice("unset")
	if len(set) > 0 || len(unset) > 0 {
		current, ok := s.FindNode(id)
		if !ok {
			return u, types.NewNotFoundError("update", id)
		}
		attrs := maps.Clone(current.Attributes)
		if attrs == nil {
			attrs = make(map[string]any)
		}
		changes, err := parseAttributes(set)
		if err != nil {
			return u, err
		}
		maps.Copy(attrs, changes)
		for _, key := range unset {
			delete(attrs, key)
		}
		u.Attributes = &attrs
	}
	return u, nil
}

func (cli *CLI) addDeleteCommand() {
	cmd := &cobra.Command{
		Use:   "delete <node-id>",
		Short: "Delete a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withEditor("delete", func(ed *nanotree.Editor) error {
				return ed.Session().DeleteNode(args[0])
			})
		},
	}
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addMoveCommand() {
	cmd := &cobra.Command{
		Use:   "move <node-id> <new-parent-id>",
		Short: "Move a node to the end of another node's children",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withEditor("move", func(ed *nanotree.Editor) error {
				return ed.Session().MoveNode(args[0], args[1])
			})
		},
	}
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addApplyCommand() {
	cmd := &cobra.Command{
		Use:   "apply <commands.json|->",
		Short: "Apply a command or a list of commands",
		Long: `Apply mutation commands in order, stopping at the first failure.
Commands applied before the failure are kept.

  [{"action":"add","parentId":"01","node":{"id":"0103","name":"Note","type":"Label","children":[]}},
   {"action":"update","nodeId":"0101","updates":{"name":"Heading"}},
   {"action":"move","nodeId":"0103","newParentId":"02"},
   {"action":"delete","nodeId":"03"}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cli.readInput(args[0])
			if err != nil {
				return WrapError("apply", err)
			}
			cmds, err := types.DecodeCommands(data)
			if err != nil {
				return NewValidationError("apply", "commands", args[0], "Pass a JSON command object or array")
			}
			return cli.withEditor("apply", func(ed *nanotree.Editor) error {
				applied, err := ed.Session().ApplyBatch(cmds)
				if !cli.viperInst.GetBool("quiet") {
					cli.printf("applied %d of %d command(s)\n", applied, len(cmds))
				}
				return err
			})
		},
	}
	cli.rootCmd.AddCommand(cmd)
}

func interchangeFormat(as, path string) (export.Format, error) {
	switch {
	case as != "":
		return export.ParseFormat(as)
	case path == "-":
		return export.FormatJSON, nil
	default:
		return export.FormatFromPath(path)
	}
}

func (cli *CLI) addExportCommand() {
	cmd := &cobra.Command{
		Use:   "export <file|->",
		Short: "Write the document as json, yaml or zstd-compressed json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			as, _ := cmd.Flags().GetString("as")
			f, err := interchangeFormat(as, args[0])
			if err != nil {
				return NewValidationError("export", "format", as+args[0], "Use a .json, .yaml or .zst file, or --as")
			}
			return cli.withEditor("export", func(ed *nanotree.Editor) error {
				forest := ed.Session().Forest()
				if args[0] == "-" {
					return export.Encode(cli.out, forest, f)
				}
				var buf bytes.Buffer
				if err := export.Encode(&buf, forest, f); err != nil {
					return err
				}
				if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
					return err
				}
				cli.logger.Info("exported", "file", args[0], "format", f.String(), "bytes", buf.Len())
				return nil
			})
		},
	}
	cmd.Flags().String("as", "", "Format: json|yaml|zst (default from the file extension)")
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addImportCommand() {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the document with an exported one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			as, _ := cmd.Flags().GetString("as")
			f, err := interchangeFormat(as, args[0])
			if err != nil {
				return NewValidationError("import", "format", as+args[0], "Use a .json, .yaml or .zst file, or --as")
			}
			data, err := cli.readInput(args[0])
			if err != nil {
				return WrapError("import", err)
			}
			forest, err := export.Decode(bytes.NewReader(data), f)
			if err != nil {
				return WrapError("import", err)
			}
			return cli.withEditor("import", func(ed *nanotree.Editor) error {
				if err := ed.Session().SetTree(forest); err != nil {
					return err
				}
				if !cli.viperInst.GetBool("quiet") {
					cli.printf("imported %d node(s)\n", types.CountNodes(forest))
				}
				return nil
			})
		},
	}
	cmd.Flags().String("as", "", "Format: json|yaml|zst (default from the file extension)")
	cli.rootCmd.AddCommand(cmd)
}

func (cli *CLI) addConfigCommand() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := make(map[string]any, len(globalKeys)+1)
			for _, key := range globalKeys {
				settings[key] = cli.viperInst.Get(key)
			}
			settings["autosave-delay"] = cli.viperInst.GetDuration("autosave-delay").String()
			settings["config-file"] = cli.viperInst.ConfigFileUsed()

			return cli.emit(settings, func(w io.Writer) {
				keys := make([]string, 0, len(settings))
				for key := range settings {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					_, _ = fmt.Fprintf(w, "%s = %v\n", key, settings[key])
				}
			})
		},
	}
	cli.rootCmd.AddCommand(cmd)
}
