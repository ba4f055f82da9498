package render

import (
	"encoding/json"
	"fmt"
	"io"
)

// Write emits the aggregate document as pretty-printed JSON with a 2-space
// indent and a trailing newline, the shape sing-box consumes directly.
func Write(w io.Writer, doc map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("输出配置文档失败: %w", err)
	}
	return nil
}
