package workspace

import (
	"path/filepath"
	"strings"
)

var languageMap = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".mjs":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".c":     "C",
	".cpp":   "C++",
	".cc":    "C++",
	".h":     "C/C++ Header",
	".hpp":   "C++ Header",
	".rs":    "Rust",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".scala": "Scala",
	".sh":    "Shell",
	".bash":  "Shell",
	".zsh":   "Shell",
	".sql":   "SQL",
	".r":     "R",
	".m":     "Objective-C",
	".cs":    "C#",
	".fs":    "F#",
	".hs":    "Haskell",
	".elm":   "Elm",
	".erl":   "Erlang",
	".ex":    "Elixir",
	".clj":   "Clojure",
	".lua":   "Lua",
	".vim":   "VimScript",
	".pl":    "Perl",
	".proto": "Protocol Buffers",
	".md":    "Markdown",
	".json":  "JSON",
	".yaml":  "YAML",
	".yml":   "YAML",
	".toml":  "TOML",
	".html":  "HTML",
	".css":   "CSS",
}

var textExtensions = map[string]bool{
	".txt": true, ".xml": true, ".scss": true, ".sass": true, ".less": true,
	".thrift": true, ".mod": true, ".sum": true, ".cfg": true, ".ini": true,
}

// Language returns the language label for a file based on its extension, or
// "" when unknown.
func Language(path string) string {
	return languageMap[strings.ToLower(filepath.Ext(path))]
}

// IsText checks if a file is likely a text file by extension.
func IsText(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := languageMap[ext]; ok {
		return true
	}
	return textExtensions[ext]
}
