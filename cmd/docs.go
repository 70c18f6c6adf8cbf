package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// docType codes whether the command is the root or a child
type docType int

const (
	root docType = iota
	child
)

// meta is for describing the position/info for a command doc page
type meta struct {
	docType  docType
	title    string
	navOrder int
	parent   string
}

// map from the base Markdown file name to its build meta
var metaMap = map[string]meta{
	"edna":          {root, "edna", 0, ""},
	"edna_run":      {child, "run", 0, "edna"},
	"edna_classify": {child, "classify", 1, "edna"},
	"edna_check":    {child, "check", 2, "edna"},
}

// docsCmd writes Markdown documentation for every command
var docsCmd = &cobra.Command{
	Use:    "docs",
	Short:  "Write Markdown documentation for every command",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		return makeDocs(dir)
	},
}

func init() {
	docsCmd.Flags().String("dir", "./docs", "directory to write the Markdown files to")
	RootCmd.AddCommand(docsCmd)
}

// makeDocs parses the custom commands and outputs Markdown documentation files
func makeDocs(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	RootCmd.DisableAutoGenTag = true
	return doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler)
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	m, ok := metaMap[baseName(filename)]
	if !ok {
		return ""
	}

	switch m.docType {
	case root:
		return fmt.Sprintf(rootPage, m.title, m.navOrder)
	case child:
		return fmt.Sprintf(childPage, m.title, m.parent, m.navOrder)
	}
	return ""
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := baseName(filename)
	if base == "edna" {
		return "/"
	}
	return base
}

func baseName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
