package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/greeter/pkg/feature"
)

// GenerateMermaid produces a Mermaid flowchart of the feature startup sequence.
// Features are chained in initialization order and styled by state:
// - initialized: green
// - failed: red, with the error as a second label line
// - pending/initializing: default
func GenerateMermaid(features []feature.FeatureStatus) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    start((\"start\"))\n")

	prev := "start"
	for _, f := range features {
		safeID := sanitizeMermaidID(f.Name)

		label := fmt.Sprintf("%s <br/> %s", f.Name, f.State)
		if f.Error != "" {
			label = fmt.Sprintf("%s <br/> %s", label, strings.ReplaceAll(f.Error, "\"", "'"))
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", safeID, label)
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, safeID)
		prev = safeID
	}

	sb.WriteString("\n    %% State Styles\n")
	sb.WriteString("    classDef initialized fill:#dcfce7,stroke:#15803d,color:#000;\n")
	sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:3px,color:#000;\n")
	for _, f := range features {
		switch f.State {
		case feature.StateInitialized.String(), feature.StateFailed.String():
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(f.Name), f.State)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
