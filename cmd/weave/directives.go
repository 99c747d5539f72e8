package main

import (
	"encoding/json"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/weave/core/directive"
)

// directiveInfo is the JSON form of a registered directive.
type directiveInfo struct {
	Name           string   `json:"name"`
	PassThrough    bool     `json:"passThrough,omitempty"`
	Followers      []string `json:"followers,omitempty"`
	Element        string   `json:"element,omitempty"`
	ExpressionAttr string   `json:"expressionAttr,omitempty"`
	Merge          string   `json:"merge,omitempty"`
	Summary        string   `json:"summary,omitempty"`
}

func (a *app) directivesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "directives",
		Short: "List registered directives and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.compiler()
			infos := describe(c.Registry().Export(), c.Prefix(), c.Namespace())
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			_, _ = tw.Write([]byte("DIRECTIVE\tELEMENT\tFOLLOWERS\tMERGE\tSUMMARY\n"))
			for _, d := range infos {
				name := c.Prefix() + ":" + d.Name
				if d.PassThrough {
					name += " (pass-through)"
				}
				row := []string{name, dash(d.Element), dash(strings.Join(d.Followers, ",")), dash(d.Merge), d.Summary}
				_, _ = tw.Write([]byte(strings.Join(row, "\t") + "\n"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func describe(descs []directive.Descriptor, prefix, namespace string) []directiveInfo {
	infos := make([]directiveInfo, 0, len(descs))
	for _, d := range descs {
		info := directiveInfo{
			Name:           d.Name,
			PassThrough:    d.IsPassThrough(),
			Followers:      d.Followers,
			ExpressionAttr: d.ExpressionAttr,
			Summary:        d.Summary,
		}
		if attr, ok := d.IsElementClaiming(); ok {
			info.Element = "<" + namespace + "-" + d.Name
			if attr != "" {
				info.Element += " " + attr
			}
			info.Element += ">"
		}
		if p, ok := d.MergePolicy(); ok {
			switch p.Mode {
			case directive.MergeInto:
				info.Merge = "into " + p.Into
			case directive.MergeExclude:
				info.Merge = "spread -" + strings.Join(p.Exclude, ",-")
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
