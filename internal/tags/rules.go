package tags

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Rules struct {
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`
}

// RulesFromCSV builds rules from the comma-separated config values.
func RulesFromCSV(whitelist, blacklist string) Rules {
	return Rules{Whitelist: SplitCSV(whitelist), Blacklist: SplitCSV(blacklist)}
}

// LoadRulesFile reads a YAML document with whitelist/blacklist lists.
func LoadRulesFile(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read tag rules: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse tag rules %s: %w", path, err)
	}
	r.Whitelist = compact(r.Whitelist)
	r.Blacklist = compact(r.Blacklist)
	return r, nil
}

func (r Rules) Merge(o Rules) Rules {
	return Rules{
		Whitelist: append(append([]string{}, r.Whitelist...), o.Whitelist...),
		Blacklist: append(append([]string{}, r.Blacklist...), o.Blacklist...),
	}
}

func (r Rules) Excludes(tags []string) bool {
	return IsExcluded(tags, r.Whitelist, r.Blacklist)
}

func SplitCSV(s string) []string {
	return compact(strings.Split(s, ","))
}

func compact(in []string) []string {
	var out []string
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
