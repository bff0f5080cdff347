// Package include substitutes {name} placeholders in message text with file
// contents before the text becomes a turn. Lookups walk a fixed search-path
// list plus the agent's uploads directory; a missing or unsupported file is
// an error surfaced to the caller, never a silent skip.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/convocli/convo/core"
)

// maxFileSize bounds included files to 2 MiB.
const maxFileSize = 2 * 1024 * 1024

var placeholder = regexp.MustCompile(`\{([^}]+)\}`)

// supportedExtensions whitelists includable file types.
var supportedExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".hpp": true, ".cs": true,
	".rb": true, ".rs": true, ".swift": true, ".kt": true, ".php": true, ".pl": true,
	".sh": true, ".bash": true, ".zsh": true, ".ps1": true, ".bat": true,
	".sql": true, ".html": true, ".htm": true, ".css": true, ".scss": true,
	".xml": true, ".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true, ".env": true, ".mod": true, ".sum": true,
	".md": true, ".markdown": true, ".rst": true, ".tex": true,
	".csv": true, ".tsv": true, ".jsonl": true, ".txt": true, ".log": true,
	".tf": true, ".hcl": true, ".graphql": true, ".proto": true,
	".gitignore": true, ".dockerignore": true, ".editorconfig": true,
}

// knownNames whitelists extensionless files by name.
var knownNames = map[string]bool{
	"makefile": true, "dockerfile": true, "rakefile": true, "gemfile": true,
	"readme": true, "license": true, "changelog": true, "authors": true, "todo": true,
}

// Processor resolves inclusions for one agent. The agent's uploads
// directory is searched after the shared relative paths.
type Processor struct {
	searchPaths []string
}

// NewProcessor builds a processor whose search list ends with the agent's
// uploads directory.
func NewProcessor(agentDir string) *Processor {
	return &Processor{searchPaths: []string{
		".", "src", "lib", "scripts", "data", "documents", "files", "config", "configs",
		filepath.Join(agentDir, "uploads"),
	}}
}

// Supported reports whether a file may be included, by extension or by
// known extensionless name.
func Supported(path string) bool {
	if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	return knownNames[strings.ToLower(filepath.Base(path))]
}

// Process replaces every {name} placeholder with the named file's contents,
// prefixed by a comment-style header matching the file type. It returns the
// substituted text, or the first lookup error.
func (p *Processor) Process(text string) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if firstErr != nil {
			return m
		}
		name := placeholder.FindStringSubmatch(m)[1]
		content, err := p.resolve(name)
		if err != nil {
			firstErr = err
			return m
		}
		return content
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (p *Processor) resolve(name string) (string, error) {
	for _, sp := range p.searchPaths {
		path := filepath.Join(sp, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if !Supported(path) {
			return "", fmt.Errorf("unsupported file type: %s", name)
		}
		if info.Size() > maxFileSize {
			return "", fmt.Errorf("file %s too large (max 2MB)", name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return header(name, path) + string(data), nil
	}
	return "", &core.NotFoundError{What: "file " + name}
}

// header returns a comment line naming the included file, in the comment
// style of its language.
func header(name, path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".py", ".r", ".sh", ".bash", ".zsh", ".yaml", ".yml", ".toml":
		return fmt.Sprintf("# File: %s (%s)\n", name, ext)
	case ".html", ".htm", ".xml", ".md", ".markdown":
		return fmt.Sprintf("<!-- File: %s (%s) -->\n", name, ext)
	case ".css", ".scss":
		return fmt.Sprintf("/* File: %s (%s) */\n", name, ext)
	case ".sql":
		return fmt.Sprintf("-- File: %s (%s)\n", name, ext)
	default:
		return fmt.Sprintf("// File: %s (%s)\n", name, ext)
	}
}

// ListFiles enumerates includable files across the search paths, with a
// human-readable size, sorted by path.
func (p *Processor) ListFiles() []string {
	var files []string
	for _, sp := range p.searchPaths {
		entries, err := os.ReadDir(sp)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			path := filepath.Join(sp, e.Name())
			if !Supported(path) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			files = append(files, fmt.Sprintf("%s (%s)", path, sizeString(info.Size())))
		}
	}
	sort.Strings(files)
	return files
}

func sizeString(n int64) string {
	if n < 1024*1024 {
		return fmt.Sprintf("%d bytes", n)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}
