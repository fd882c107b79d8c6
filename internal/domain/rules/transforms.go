package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// RemoveLineTransform deletes the violation line from the content.
func RemoveLineTransform(content string, v domain.EnsembleViolation) (string, error) {
	lines := strings.Split(content, "\n")
	if v.Line < 1 || v.Line > len(lines) {
		return "", fmt.Errorf("line %d out of range (file has %d lines)", v.Line, len(lines))
	}
	lines = append(lines[:v.Line-1], lines[v.Line:]...)
	return strings.Join(lines, "\n"), nil
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// RenameMockTransform moves the word Mock to the front of the offending
// identifier and rewrites every whole-word occurrence in the file. The
// identifier comes from the violation's matched text; when absent it is
// recovered from the violation line.
func RenameMockTransform(content string, v domain.EnsembleViolation) (string, error) {
	oldName := v.MatchedText
	if oldName == "" || !identRe.MatchString(oldName) || strings.ContainsAny(oldName, " \t(") {
		var err error
		oldName, err = mockIdentOnLine(content, v.Line)
		if err != nil {
			return "", err
		}
	}

	newName := renameMock(oldName)
	if newName == oldName {
		return "", fmt.Errorf("identifier %q already conforms", oldName)
	}

	wordRe, err := regexp.Compile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	if err != nil {
		return "", err
	}
	return wordRe.ReplaceAllString(content, newName), nil
}

func mockIdentOnLine(content string, line int) (string, error) {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return "", fmt.Errorf("line %d out of range", line)
	}
	for _, ident := range identRe.FindAllString(lines[line-1], -1) {
		if ident == "func" {
			continue
		}
		if strings.Contains(ident, "Mock") && !strings.HasPrefix(ident, "Mock") {
			return ident, nil
		}
	}
	return "", fmt.Errorf("no misnamed mock identifier on line %d", line)
}

// renameMock turns SomethingMockHelper into MockSomethingHelper.
func renameMock(name string) string {
	if strings.HasPrefix(name, "Mock") {
		return name
	}
	stripped := strings.Replace(name, "Mock", "", 1)
	return "Mock" + stripped
}
