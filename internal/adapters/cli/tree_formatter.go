package cli

import (
	"fmt"
	"strings"

	"github.com/factorlab/beltplan-go/internal/application/progression/queries"
)

// TreeFormatter renders dependency trees with box-drawing connectors
type TreeFormatter struct {
	useColors bool
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(useColors bool) *TreeFormatter {
	return &TreeFormatter{useColors: useColors}
}

// FormatTree renders a dependency tree with accessibility indicators
func (f *TreeFormatter) FormatTree(root *queries.DependencyNode) string {
	if root == nil {
		return "(no dependencies)"
	}

	var builder strings.Builder
	f.formatNode(&builder, root, "", true, true)
	return builder.String()
}

// formatNode recursively formats a node and its children
func (f *TreeFormatter) formatNode(builder *strings.Builder, node *queries.DependencyNode, prefix string, isLast bool, isRoot bool) {
	// Build the tree structure prefix
	var linePrefix string
	if isRoot {
		linePrefix = ""
	} else if isLast {
		linePrefix = prefix + "└── "
	} else {
		linePrefix = prefix + "├── "
	}

	builder.WriteString(linePrefix + f.nodeLabel(node) + "\n")

	var childPrefix string
	if isRoot {
		childPrefix = ""
	} else if isLast {
		childPrefix = prefix + "    "
	} else {
		childPrefix = prefix + "│   "
	}

	// Leaves first, sub-groups after, matching the walk order.
	total := len(node.Objects) + len(node.Children)
	for i, obj := range node.Objects {
		f.writeLeaf(builder, obj, childPrefix, i == total-1)
	}
	for i, child := range node.Children {
		f.formatNode(builder, child, childPrefix, len(node.Objects)+i == total-1, false)
	}
}

// nodeLabel renders the header line of a list or group node
func (f *TreeFormatter) nodeLabel(node *queries.DependencyNode) string {
	if node.Category == "" {
		// Group node
		if node.Operator == "any" {
			return "any of"
		}
		return "all of"
	}

	label := node.Category
	if len(node.Objects) > 1 {
		if node.RequiresAll {
			label += " (all of)"
		} else {
			label += " (any of)"
		}
	}
	if node.OneTime {
		label += " [one-time]"
	}
	return label
}

// writeLeaf renders one required object with its accessibility marker
func (f *TreeFormatter) writeLeaf(builder *strings.Builder, obj queries.RequiredObject, prefix string, isLast bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}

	marker := "✗"
	markerColor := f.colorRed()
	if obj.Accessible {
		marker = "✓"
		markerColor = f.colorGreen()
	}

	builder.WriteString(fmt.Sprintf("%s%s%s%s%s %s [%s]\n",
		prefix,
		connector,
		markerColor,
		marker,
		f.colorReset(),
		obj.Name,
		obj.Kind,
	))
}

// colorGreen returns ANSI green code
func (f *TreeFormatter) colorGreen() string {
	if !f.useColors {
		return ""
	}
	return "\033[32m"
}

// colorRed returns ANSI red code
func (f *TreeFormatter) colorRed() string {
	if !f.useColors {
		return ""
	}
	return "\033[31m"
}

// colorReset returns ANSI reset code
func (f *TreeFormatter) colorReset() string {
	if !f.useColors {
		return ""
	}
	return "\033[0m"
}

// FormatTreeSummary creates a compact summary of the tree
func (f *TreeFormatter) FormatTreeSummary(root *queries.DependencyNode) string {
	if root == nil {
		return "No dependencies"
	}

	lists, objects, satisfied := countTree(root)
	return fmt.Sprintf("%d requirement lists, %d objects (%d accessible)", lists, objects, satisfied)
}

// countTree tallies requirement lists, listed objects and accessible ones.
func countTree(node *queries.DependencyNode) (lists, objects, satisfied int) {
	if node.Category != "" {
		lists++
	}
	for _, obj := range node.Objects {
		objects++
		if obj.Accessible {
			satisfied++
		}
	}
	for _, child := range node.Children {
		l, o, s := countTree(child)
		lists += l
		objects += o
		satisfied += s
	}
	return lists, objects, satisfied
}
