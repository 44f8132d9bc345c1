package validator

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"gopkg.in/yaml.v3"

	"confit/schema"
)

// commentWidth is the column at which doc comments wrap, including
// the leading "# ".
const commentWidth = 70

// Sample produces a documented example configuration from s: a version
// header, then one blank-line-separated block per rule holding the doc
// string and available choices as comments followed by the key bound
// to its example value. The output parses as a raw configuration
// document, so a generated sample validates as-is.
func Sample(s *schema.Schema) (string, error) {
	lines := []string{"%YAML 1.2", "---"}

	for _, rule := range s.Rules() {
		lines = append(lines, "")
		if rule.Doc != "" {
			lines = append(lines, comment(rule.Doc)...)
		}
		if enum, ok := rule.Converter.(schema.Enumerable); ok {
			choices := make([]string, 0, len(enum.Choices()))
			for _, c := range enum.Choices() {
				choices = append(choices, fmt.Sprint(c))
			}
			lines = append(lines, comment("One of: "+strings.Join(choices, ", "))...)
		}

		key, err := renderValue(rule.Name)
		if err != nil {
			return "", fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		example, err := renderValue(rule.Example)
		if err != nil {
			return "", fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		lines = append(lines, key+": "+example)
	}

	return strings.Join(lines, "\n") + "\n", nil
}

// comment wraps text into "# "-prefixed lines.
func comment(text string) []string {
	wrapped := wordwrap.WrapString(text, commentWidth-2)
	raw := strings.Split(wrapped, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, "# "+line)
	}
	return lines
}

// renderValue renders a value as a single-line YAML scalar or
// flow-style collection.
func renderValue(value any) (string, error) {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return "", err
	}
	flowStyle(node)
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func flowStyle(node *yaml.Node) {
	if node.Kind == yaml.SequenceNode || node.Kind == yaml.MappingNode {
		node.Style = yaml.FlowStyle
	}
	for _, child := range node.Content {
		flowStyle(child)
	}
}
