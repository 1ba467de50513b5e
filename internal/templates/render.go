package templates

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"decisiondash/internal/api"
	"decisiondash/internal/services/presenter"
)

// Template directories scanned under the base directory, in parse order
var templateDirs = []string{"layouts", "pages", "partials"}

var (
	templateCallRe = regexp.MustCompile(`\{\{-?\s*template\s+"([^"]+)"`)
	lineNumberRe   = regexp.MustCompile(`:(\d+):`)
)

// Renderer handles template rendering
type Renderer struct {
	mu        sync.RWMutex
	templates *template.Template
	debug     bool
	baseDir   string
}

// New creates a new template renderer
func New(templateDir string, debug bool) (*Renderer, error) {
	r := &Renderer{
		debug:   debug,
		baseDir: templateDir,
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}

	return r, nil
}

// getFuncMap returns the template function map
func getFuncMap() template.FuncMap {
	return template.FuncMap{
		"money":          presenter.Money,
		"percent":        presenter.Percent,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"fill":           func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"errText":        errText,
		"dict":           dict,
		"json":           jsonMarshal,
		"lower":          strings.ToLower,
		"add":            func(a, b int) int { return a + b },
		"isNegative":     func(d decimal.Decimal) bool { return d.IsNegative() },
	}
}

// loadTemplates parses all templates and checks every {{template}} reference resolves
func (r *Renderer) loadTemplates() error {
	tmpl := template.New("").Funcs(getFuncMap())

	var files []string
	for _, subdir := range templateDirs {
		pattern := filepath.Join(r.baseDir, subdir, "*.html")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("error globbing %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no template files found in %s", r.baseDir)
	}

	var parseErrors []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("  %s: failed to read: %v", file, err))
			continue
		}
		if _, err := tmpl.New(filepath.Base(file)).Parse(string(content)); err != nil {
			parseErrors = append(parseErrors, formatTemplateError(file, string(content), err))
		}
	}
	if len(parseErrors) > 0 {
		logBlock("TEMPLATE PARSING ERRORS", parseErrors)
		return fmt.Errorf("template parsing failed with %d error(s)", len(parseErrors))
	}

	if err := validateTemplateReferences(tmpl, files); err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()
	log.Printf("Templates loaded successfully: %d files", len(files))
	return nil
}

// formatTemplateError formats a template error with the surrounding source lines
func formatTemplateError(file, content string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n  File: %s\n", file)

	errStr := err.Error()
	lineNum := 0
	if m := lineNumberRe.FindStringSubmatch(errStr); len(m) >= 2 {
		fmt.Sscanf(m[1], "%d", &lineNum)
	}
	if lineNum <= 0 {
		fmt.Fprintf(&sb, "  Error: %s\n", errStr)
		return sb.String()
	}

	fmt.Fprintf(&sb, "  Line: %d\n  Error: %s\n  Context:\n", lineNum, errStr)
	lines := strings.Split(content, "\n")
	start := max(lineNum-3, 0)
	end := min(lineNum+2, len(lines))
	for i := start; i < end; i++ {
		marker := "   "
		if i+1 == lineNum {
			marker = ">>>"
		}
		fmt.Fprintf(&sb, "    %s %4d | %s\n", marker, i+1, lines[i])
	}
	return sb.String()
}

// validateTemplateReferences checks that all {{template "name"}} calls reference defined templates
func validateTemplateReferences(tmpl *template.Template, files []string) error {
	defined := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		if t.Name() != "" {
			defined[t.Name()] = true
		}
	}

	var refErrors []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(strings.NewReader(string(content)))
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			for _, m := range templateCallRe.FindAllStringSubmatch(scanner.Text(), -1) {
				if !defined[m[1]] {
					refErrors = append(refErrors, fmt.Sprintf("  %s:%d: undefined template %q", file, lineNum, m[1]))
				}
			}
		}
	}

	if len(refErrors) > 0 {
		logBlock("UNDEFINED TEMPLATE REFERENCES", refErrors)
		return fmt.Errorf("found %d undefined template reference(s)", len(refErrors))
	}
	return nil
}

func logBlock(title string, lines []string) {
	rule := strings.Repeat("=", 60)
	log.Printf("\n%s", rule)
	log.Printf("%s", title)
	log.Printf("%s", rule)
	for _, l := range lines {
		log.Printf("%s", l)
	}
	log.Printf("%s\n", rule)
}

// Reload reloads templates (useful for development)
func (r *Renderer) Reload() error {
	return r.loadTemplates()
}

// Render renders a named template as a complete HTML response
func (r *Renderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	return r.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a named template with the given status code. The
// template is executed into a buffer first so a failure can still send a 500.
func (r *Renderer) RenderStatus(w http.ResponseWriter, status int, name string, data interface{}) error {
	if r.debug {
		if err := r.loadTemplates(); err != nil {
			log.Printf("Error reloading templates: %v", err)
		}
	}

	var buf strings.Builder
	if err := r.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.WriteString(w, buf.String())
	return err
}

// RenderToString renders a template to a string
func (r *Renderer) RenderToString(name string, data interface{}) (string, error) {
	var buf strings.Builder
	if err := r.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExecuteTemplate executes a template to a writer
func (r *Renderer) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	t := r.templates
	r.mu.RUnlock()
	return t.ExecuteTemplate(w, name, data)
}

// Template functions

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

// errText is the inline message for a failed section
func errText(err error) string {
	if err == nil {
		return ""
	}
	return api.Message(err, "This section is unavailable right now.")
}

// dict creates a map from key-value pairs
func dict(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	result := make(map[string]interface{})
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		result[key] = values[i+1]
	}
	return result
}

func jsonMarshal(v interface{}) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error encoding template JSON: %v", err)
		return template.JS("null")
	}
	return template.JS(b)
}
