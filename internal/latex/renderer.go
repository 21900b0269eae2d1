package latex

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RenderInput carries everything needed to produce a request document.
type RenderInput struct {
	FormCode       string
	RequestID      string
	RequesterName  string
	SubmittedAt    time.Time
	Fields         []FieldValue
	SignaturePaths []string
}

// FieldValue is a single labeled value in submission order.
type FieldValue struct {
	Label string
	Value string
}

// BuildError reports a failed pdflatex run with its captured output.
type BuildError struct {
	Stdout string
	Stderr string
	Log    string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("latex compilation failed\nstdout:\n%s\nstderr:\n%s\nbuild.log:\n%s", e.Stdout, e.Stderr, e.Log)
}

// Renderer turns an approved request into a PDF and returns its path
// relative to the working directory.
type Renderer interface {
	Render(ctx context.Context, input RenderInput) (string, error)
}

// MakeRenderer writes a .tex document into the build directory and compiles
// it by invoking make, so the toolchain invocation stays in one Makefile.
type MakeRenderer struct {
	dir    string
	logger *logrus.Entry
}

// NewMakeRenderer creates a renderer building under dir.
func NewMakeRenderer(dir string) *MakeRenderer {
	return &MakeRenderer{
		dir:    dir,
		logger: logrus.WithField("component", "latex.renderer"),
	}
}

const makefileContents = "PDFLATEX=pdflatex\n" +
	".SUFFIXES: .tex .pdf\n" +
	"%.pdf: %.tex\n\t$(PDFLATEX) -interaction=nonstopmode -halt-on-error $< > build.log 2>&1\n" +
	"\nclean:\n\trm -f *.aux *.log *.out *.toc build.log\n"

// Render composes the document, runs make and returns the PDF path relative
// to the process working directory.
func (r *MakeRenderer) Render(ctx context.Context, input RenderInput) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create latex directory: %w", err)
	}
	if err := r.ensureMakefile(); err != nil {
		return "", err
	}

	baseName := fmt.Sprintf("%s_%s", strings.ToUpper(strings.ReplaceAll(input.FormCode, " ", "_")), input.RequestID)
	texPath := filepath.Join(r.dir, baseName+".tex")
	pdfPath := filepath.Join(r.dir, baseName+".pdf")

	doc := composeDocument(input, r.signatureRelPaths(input.SignaturePaths))
	if err := os.WriteFile(texPath, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("failed to write tex file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "make", "-C", r.dir, baseName+".pdf")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if _, statErr := os.Stat(pdfPath); runErr != nil || statErr != nil {
		logContent := ""
		if data, err := os.ReadFile(filepath.Join(r.dir, "build.log")); err == nil {
			logContent = string(data)
		}
		return "", &BuildError{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Log:    logContent,
		}
	}

	r.logger.WithField("pdf", pdfPath).Info("Rendered request document")
	return pdfPath, nil
}

func (r *MakeRenderer) ensureMakefile() error {
	makefilePath := filepath.Join(r.dir, "Makefile")
	if _, err := os.Stat(makefilePath); err == nil {
		return nil
	}
	if err := os.WriteFile(makefilePath, []byte(makefileContents), 0o644); err != nil {
		return fmt.Errorf("failed to write Makefile: %w", err)
	}
	return nil
}

// signatureRelPaths keeps only signatures that exist on disk, re-expressed
// relative to the build directory so includegraphics resolves them.
func (r *MakeRenderer) signatureRelPaths(paths []string) []string {
	var rels []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		rel, err := filepath.Rel(r.dir, p)
		if err != nil {
			continue
		}
		rels = append(rels, rel)
	}
	return rels
}

var escapeReplacer = strings.NewReplacer(
	"\\", `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"#", `\#`,
	"$", `\$`,
	"%", `\%`,
	"&", `\&`,
	"_", `\_`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// Escape makes a string safe to embed in a LaTeX document.
func Escape(s string) string {
	return escapeReplacer.Replace(s)
}

func composeDocument(input RenderInput, signatureRels []string) string {
	title := strings.ReplaceAll(strings.ToUpper(input.FormCode), "_", " ")

	submittedAt := input.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	var fields strings.Builder
	fields.WriteString("\\begin{itemize}\n")
	for _, fv := range input.Fields {
		fmt.Fprintf(&fields, "  \\item \\textbf{%s}: %s\n", Escape(fv.Label), Escape(fv.Value))
	}
	fields.WriteString("\\end{itemize}")

	signatures := `\emph{No signatures provided}`
	if len(signatureRels) > 0 {
		var lines []string
		for _, rel := range signatureRels {
			lines = append(lines, fmt.Sprintf(`\includegraphics[width=0.35\textwidth]{%s}`, Escape(rel)))
		}
		signatures = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`\documentclass[11pt]{article}
\usepackage[margin=1in]{geometry}
\usepackage{graphicx}
\usepackage{hyperref}
\usepackage[T1]{fontenc}
\usepackage[utf8]{inputenc}
\title{%s Request}
\date{%s}
\begin{document}
\maketitle
\section*{Submitter}
\textbf{Name}: %s \\
\section*{Form Data}
%s
\section*{Signatures}
%s
\end{document}
`,
		Escape(title),
		Escape(submittedAt.UTC().Format("2006-01-02 15:04 UTC")),
		Escape(input.RequesterName),
		fields.String(),
		signatures,
	)
}

// FieldsFromMap flattens coerced form data into ordered label/value pairs.
// order supplies the field sequence; keys missing from order are appended
// alphabetically so nothing submitted is dropped from the document.
func FieldsFromMap(data map[string]interface{}, order []string) []FieldValue {
	seen := make(map[string]bool, len(order))
	var out []FieldValue
	for _, k := range order {
		if v, ok := data[k]; ok {
			out = append(out, FieldValue{Label: k, Value: valueString(v)})
			seen[k] = true
		}
	}
	var rest []string
	for k := range data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, FieldValue{Label: k, Value: valueString(data[k])})
	}
	return out
}

func valueString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, valueString(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}
