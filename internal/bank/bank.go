// Package bank loads and validates question banks. A bank file is a JSON array of quizzes;
// banks are rejected at load time so sessions never see a malformed question.
package bank

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"study-quiz-service/internal/domain"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed builtin/*.json
var builtinFS embed.FS

const schemaURL = "schema://question-bank.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func bankSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Parse validates one bank document and decodes its quizzes.
func Parse(name string, data []byte) ([]domain.Quiz, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", name, err)
	}
	schema, err := bankSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: schema validation failed: %w", name, err)
	}

	var quizzes []domain.Quiz
	if err := json.Unmarshal(data, &quizzes); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}
	for _, quiz := range quizzes {
		if err := domain.ValidateQuiz(quiz); err != nil {
			return nil, fmt.Errorf("%s: quiz %q: %w", name, quiz.ID, err)
		}
	}
	return quizzes, nil
}

// Load reads a bank file, or every *.json file in a directory.
func Load(path string) ([]domain.Quiz, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return Parse(path, data)
	}
	return loadFS(os.DirFS(path), ".")
}

// Builtin returns the bank compiled into the binary.
func Builtin() ([]domain.Quiz, error) {
	return loadFS(builtinFS, "builtin")
}

func loadFS(fsys fs.FS, dir string) ([]domain.Quiz, error) {
	names, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(dir, "*.json")))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var all []domain.Quiz
	seen := make(map[string]string)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		quizzes, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		for _, quiz := range quizzes {
			if prev, dup := seen[quiz.ID]; dup {
				return nil, fmt.Errorf("%s: quiz %q already defined in %s", name, quiz.ID, prev)
			}
			seen[quiz.ID] = name
			all = append(all, quiz)
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no quizzes found in %s", dir)
	}
	return all, nil
}

// Topics lists "id: title (n questions)" lines for display.
func Topics(quizzes []domain.Quiz) []string {
	lines := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		lines = append(lines, fmt.Sprintf("%s: %s (%d questions)", q.ID, strings.TrimSpace(q.Title), len(q.Questions)))
	}
	return lines
}
