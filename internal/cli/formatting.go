package cli

import (
	"os"
	"strings"
	"text/template"

	"github.com/arthur-debert/ariamove/pkg/ui/styles"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// formatBold renders s with the Header style on a terminal
func formatBold(s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return styles.Render("Header", s)
}

// formatBoldUpper returns the string in uppercase and bold
func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// initTemplateFormatting adds custom formatting functions to Cobra templates
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
	})
}
