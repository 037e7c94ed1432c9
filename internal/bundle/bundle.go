package bundle

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"landing_ai_server/internal/types"
	"landing_ai_server/internal/utils"
)

var closingScriptPattern = regexp.MustCompile(`(?i)</(script)`)

// Compose builds one self-contained document from generated html, css and js.
// The script runs inside a try/catch and any "</script" in it is escaped so it
// cannot terminate the script element early.
func Compose(html, css, js string) string {
	safeJS := closingScriptPattern.ReplaceAllString(js, `<\/${1}`)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\" />\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width,initial-scale=1\" />\n")
	b.WriteString("<style>")
	b.WriteString(css)
	b.WriteString("</style></head><body>")
	b.WriteString(html)
	b.WriteString("\n<script>(function(){try{")
	b.WriteString(safeJS)
	b.WriteString("}catch(e){console.error(e)}})()</script>\n</body></html>")
	return b.String()
}

// Files lists the bundle files for a full-page generation result.
func Files(code types.GeneratedCodeResult) []types.GeneratedFile {
	var css, js string
	files := []types.GeneratedFile{newFile("index.html", code.HTML)}
	if code.CSS != nil {
		css = *code.CSS
		files = append(files, newFile("styles.css", css))
	}
	if code.JS != nil {
		js = *code.JS
		files = append(files, newFile("script.js", js))
	}
	files = append(files, newFile("preview.html", Compose(code.HTML, css, js)))
	return files
}

func newFile(name, content string) types.GeneratedFile {
	return types.GeneratedFile{Filename: name, Type: utils.DetermineFileType(name), Content: content}
}

// SaveFilesDisk writes files under root/pageID and returns how many were written.
func SaveFilesDisk(root, pageID string, generatedFiles []types.GeneratedFile) (int, error) {
	if root == "" {
		return 0, fmt.Errorf("export directory is not configured")
	}
	projectDir := filepath.Join(root, pageID)
	if !isWithin(root, projectDir) || pageID == "" {
		return 0, fmt.Errorf("invalid page id %q", pageID)
	}

	filesCount := 0
	for _, fileData := range generatedFiles {
		filePath := filepath.Join(projectDir, fileData.Filename)
		if !isWithin(projectDir, filePath) {
			log.Printf("WARN: Skipping bundle file outside export directory: %s", fileData.Filename)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return filesCount, fmt.Errorf("failed to create directory for %s: %w", fileData.Filename, err)
		}

		if err := os.WriteFile(filePath, []byte(fileData.Content), 0o644); err != nil {
			return filesCount, fmt.Errorf("failed to write file %s: %w", filePath, err)
		}

		filesCount++
	}
	log.Printf("Exported page %s: %d files written to %s", pageID, filesCount, projectDir)
	if filesCount != len(generatedFiles) {
		log.Printf("WARN: Mismatch between bundle files (%d) and written files (%d) for page %s.", len(generatedFiles), filesCount, pageID)
	}
	return filesCount, nil
}

// isWithin reports whether target is base itself or lies below it.
func isWithin(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
