// Command generate_index writes dist/index.html for a release: the search
// field reference followed by a download table for the archives in dist.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/oakwood-commons/mwq/internal/docs"
	"github.com/oakwood-commons/mwq/internal/schema"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dist-dir>\n", os.Args[0])
		os.Exit(1)
	}

	distDir := os.Args[1]
	indexPath := filepath.Join(distDir, "index.html")

	page, err := docs.HTML(schema.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering field reference: %v\n", err)
		os.Exit(1)
	}

	version := detectVersionFromDist(distDir)
	page = insertDownloads(page, generateDownloadsHTML(distDir, version))

	if err := os.WriteFile(indexPath, page, 0o644); err != nil { //nolint:gosec
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", indexPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", indexPath)
}

var archivePattern = regexp.MustCompile(`^mwq_([^_]+(?:-[^_]+)*)_(?:Darwin|Linux|Windows)_(?:arm64|x86_64)\.(?:tar\.gz|zip)$`)

// detectVersionFromDist finds the version string from files like mwq_0.1.0-SNAPSHOT-abc123_Darwin_arm64.tar.gz
func detectVersionFromDist(distDir string) string {
	files, err := os.ReadDir(distDir)
	if err != nil {
		return "unknown"
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if m := archivePattern.FindStringSubmatch(file.Name()); len(m) >= 2 {
			return m[1]
		}
	}
	return "unknown"
}

var platformNames = []struct {
	marker string
	name   string
}{
	{"Darwin_arm64", "macOS (Apple Silicon)"},
	{"Darwin_x86_64", "macOS (Intel)"},
	{"Linux_arm64", "Linux (ARM64)"},
	{"Linux_x86_64", "Linux (x86_64)"},
	{"Windows_arm64", "Windows (ARM64)"},
	{"Windows_x86_64", "Windows (x86_64)"},
}

// generateDownloadsHTML lists one archive per platform, in platform order.
func generateDownloadsHTML(distDir, version string) string {
	var names []string
	if files, err := os.ReadDir(distDir); err == nil {
		for _, f := range files {
			if !f.IsDir() && archivePattern.MatchString(f.Name()) {
				names = append(names, f.Name())
			}
		}
	}
	slices.Sort(names)

	var sb strings.Builder
	sb.WriteString("<h2>Downloads</h2>\n")
	fmt.Fprintf(&sb, "<h3>%s</h3>\n<table>\n", version)
	for _, p := range platformNames {
		for _, name := range names {
			if strings.Contains(name, "_"+p.marker+".") {
				fmt.Fprintf(&sb, "<tr><td>%s</td><td><a href=\"%s\">download</a></td></tr>\n", p.name, name)
				break
			}
		}
	}
	sb.WriteString("</table>\n")
	return sb.String()
}

// insertDownloads places the downloads section right after <body>.
func insertDownloads(page []byte, downloads string) []byte {
	s := string(page)
	if i := strings.Index(s, "<body>\n"); i >= 0 {
		i += len("<body>\n")
		return []byte(s[:i] + downloads + s[i:])
	}
	return append(page, downloads...)
}
