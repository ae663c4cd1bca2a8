package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/ludus/pkg/werewolf"
)

// Validates a prompts override file: strict YAML keys, no blanked-out
// templates, and format verbs matching what the call sites pass.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <prompts.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &PromptsValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Prompts file is valid!")
}

type PromptsValidator struct {
	errors []string
}

func (v *PromptsValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".yaml") && !strings.HasSuffix(baseName, ".yml") {
		return fmt.Errorf("prompts file must have a .yaml or .yml extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	// Strict decode catches misspelled keys that a plain merge would
	// silently drop.
	var strict werewolf.Prompts
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&strict); err != nil {
		return fmt.Errorf("file %s failed strict YAML parsing: %w", filename, err)
	}

	merged, err := werewolf.LoadPrompts(filename)
	if err != nil {
		return fmt.Errorf("file %s failed to load: %w", filename, err)
	}

	defaults := werewolf.DefaultPrompts()
	v.compare("", reflect.ValueOf(*merged), reflect.ValueOf(*defaults))

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

// compare walks the merged prompts against the defaults field by field.
func (v *PromptsValidator) compare(path string, merged, defaults reflect.Value) {
	t := merged.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Name
		if path != "" {
			name = path + "." + field.Name
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			v.compare(name, merged.Field(i), defaults.Field(i))
		case reflect.String:
			v.checkTemplate(name, merged.Field(i).String(), defaults.Field(i).String())
		}
	}
}

var verbPattern = regexp.MustCompile(`%[#+\-0 ]*[0-9.]*[a-zA-Z]`)

func verbs(template string) []string {
	return verbPattern.FindAllString(strings.ReplaceAll(template, "%%", ""), -1)
}

func (v *PromptsValidator) checkTemplate(name, merged, defaultValue string) {
	if strings.TrimSpace(merged) == "" {
		v.errors = append(v.errors, fmt.Sprintf("- %s: template must not be empty", name))
		return
	}

	got := verbs(merged)
	want := verbs(defaultValue)
	if len(got) != len(want) {
		v.errors = append(v.errors, fmt.Sprintf(
			"- %s: template has %d format verbs, the game supplies %d", name, len(got), len(want)))
		return
	}
	for i := range got {
		if got[i] != want[i] {
			v.errors = append(v.errors, fmt.Sprintf(
				"- %s: format verb %d is %s, the game supplies %s", name, i+1, got[i], want[i]))
		}
	}
}
