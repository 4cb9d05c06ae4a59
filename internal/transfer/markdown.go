package transfer

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// frontmatter covers the keys written by markdown prompt libraries
type frontmatter struct {
	Title       string          `yaml:"title"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Objective   string          `yaml:"objective"`
	Persona     string          `yaml:"persona"`
	Category    models.Category `yaml:"category"`
	Tags        []string        `yaml:"tags"`
}

// ReadMarkdownDir reads every .md file under dir as a draft. Files without frontmatter are
// taken whole as content. A file with malformed frontmatter fails the entire read.
func ReadMarkdownDir(dir string) ([]models.Draft, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileNotFound, fmt.Sprintf("cannot read %s", dir))
	}
	if !info.IsDir() {
		return nil, errors.NewAppError(errors.ErrCodeInvalidInput, fmt.Sprintf("%s is not a directory", dir))
	}

	var drafts []models.Draft
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		draft, err := parseMarkdown(content, path)
		if err != nil {
			return errors.InvalidFormatError(fmt.Sprintf("cannot parse %s", path), err)
		}
		drafts = append(drafts, draft)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func parseMarkdown(content []byte, path string) (models.Draft, error) {
	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return models.Draft{}, err
	}

	d := models.Draft{
		Name:      meta.Title,
		Objective: meta.Objective,
		Persona:   meta.Persona,
		Category:  meta.Category,
		Content:   body,
		Tags:      meta.Tags,
	}
	if d.Name == "" {
		d.Name = meta.Name
	}
	if d.Name == "" {
		d.Name = extractTitle(body, path)
	}
	if d.Objective == "" {
		d.Objective = meta.Description
	}
	return d, nil
}

func splitFrontmatter(content []byte) (frontmatter, string, error) {
	var meta frontmatter

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return meta, strings.TrimSpace(string(content)), nil
	}

	var header []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		header = append(header, line)
	}
	if !closed {
		return meta, "", fmt.Errorf("missing closing frontmatter delimiter")
	}
	if err := yaml.Unmarshal([]byte(strings.Join(header, "\n")), &meta); err != nil {
		return meta, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	var body []string
	for scanner.Scan() {
		body = append(body, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return meta, "", err
	}
	return meta, strings.TrimSpace(strings.Join(body, "\n")), nil
}

// extractTitle uses the first level-one heading, falling back to the file name
func extractTitle(body, path string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.ReplaceAll(strings.ReplaceAll(name, "-", " "), "_", " ")
}
