package model

import "sort"

// Runtime is the executor's name and version for a language.
type Runtime struct {
	Language string `json:"language"`
	Version  string `json:"version"`
}

var runtimes = map[string]Runtime{
	"python":     {Language: "python", Version: "3.10.0"},
	"java":       {Language: "java", Version: "15.0.2"},
	"c_cpp":      {Language: "cpp", Version: "10.2.0"},
	"javascript": {Language: "javascript", Version: "18.15.0"},
}

// RuntimeFor maps an editor language tag to its executor runtime.
func RuntimeFor(tag string) (Runtime, bool) {
	rt, ok := runtimes[tag]
	return rt, ok
}

func SupportedLanguages() []string {
	tags := make([]string, 0, len(runtimes))
	for tag := range runtimes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
