// Package profile reads NekoRay profile documents from the on-disk profile
// store. Per-file failures are logged and skipped; the loader never fails the
// whole run.
package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/John-Robertt/neko2sing/internal/jsontree"
)

// DefaultDir is where NekoRay keeps its profile store.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nekoray", "config", "profiles"), nil
}

// Load reads every regular *.json file in dir and decodes it as one profile
// document. It returns the decoded profiles sorted ascending by numeric id,
// plus the number of files that had to be skipped. An unreadable dir counts
// as one skip and yields an empty set.
func Load(dir string, log *zap.Logger) ([]map[string]any, int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("无法读取 profile 目录", zap.String("dir", dir), zap.Error(err))
		return nil, 1
	}

	skipped := 0
	docs := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn("无法读取 profile 文件", zap.String("file", path), zap.Error(err))
			skipped++
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal(b, &doc); err != nil {
			log.Warn("profile 文件不是合法 JSON 对象", zap.String("file", path), zap.Error(err))
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	// Ascending id; a missing or non-numeric id sorts as 0.
	sort.SliceStable(docs, func(i, j int) bool {
		return profileID(docs[i]) < profileID(docs[j])
	})
	return docs, skipped
}

func profileID(doc map[string]any) int {
	n, _ := jsontree.Int(jsontree.Value(doc, "id"))
	return n
}
