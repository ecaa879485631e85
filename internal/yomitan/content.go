package yomitan

// Node is a structured-content element. Content holds a string, a *Node
// or a []any of those.
type Node struct {
	Tag     string            `json:"tag"`
	Content any               `json:"content,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
	Lang    string            `json:"lang,omitempty"`
	Title   string            `json:"title,omitempty"`
	Style   map[string]string `json:"style,omitempty"`
}

// StructuredContent is a glossary item holding a node tree.
type StructuredContent struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

func structured(content any) StructuredContent {
	return StructuredContent{Type: "structured-content", Content: content}
}

func el(tag string, class string, content any) *Node {
	n := &Node{Tag: tag, Content: content}
	if class != "" {
		n.Data = map[string]string{"content": class}
	}
	return n
}
