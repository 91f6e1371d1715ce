package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/daniellittledev/ReSpacer/internal/render"
	"github.com/daniellittledev/ReSpacer/internal/settings"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asYAML bool
	var project string

	cmd := &cobra.Command{
		Use:   "show [FILE]",
		Short: "Print a settings document",
		Long: "Print a settings document as a table. Without FILE the global document\n" +
			"is shown, or the project's document when --project is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.documentPath(args, project)
			if err != nil {
				return err
			}
			st, err := ctx.store()
			if err != nil {
				return err
			}

			doc, err := st.Load(path)
			if err != nil {
				if errors.Is(err, settings.ErrDocumentAbsent) {
					return fmt.Errorf("no settings document at %s", path)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				data, err := yaml.Marshal(newYAMLDocument(doc))
				if err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				_, err = out.Write(data)
				return err
			}

			fmt.Fprintf(out, "%s\n", path)
			if len(doc.Pages) == 0 {
				fmt.Fprintln(out, "No property pages")
				return nil
			}
			fmt.Fprintln(out, render.Document(doc))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Output as YAML")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Show the document of this project directory")

	return cmd
}

type yamlPage struct {
	Name        string `yaml:"name"`
	IndentStyle string `yaml:"indent_style"`
	TabSize     *int   `yaml:"tab_size,omitempty"`
	IndentSize  *int   `yaml:"indent_size,omitempty"`
	InsertTabs  *bool  `yaml:"insert_tabs,omitempty"`
}

type yamlDocument struct {
	Version int        `yaml:"version"`
	Pages   []yamlPage `yaml:"pages"`
}

func newYAMLDocument(doc settings.Document) yamlDocument {
	out := yamlDocument{Version: settings.CurrentVersion, Pages: make([]yamlPage, 0, len(doc.Pages))}
	for _, p := range doc.Pages {
		tabs := p.Settings.TabSettings
		out.Pages = append(out.Pages, yamlPage{
			Name:        p.Name,
			IndentStyle: tabs.IndentStyle.String(),
			TabSize:     tabs.TabSize,
			IndentSize:  tabs.IndentSize,
			InsertTabs:  tabs.InsertTabs,
		})
	}
	return out
}
