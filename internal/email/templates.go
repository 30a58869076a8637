package email

import (
	"fmt"
	"html"
	"strings"
)

const maxListedErrors = 50

func importSummaryHTML(summary ImportSummary) string {
	var rows strings.Builder
	for i, e := range summary.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&rows, "<li>... and %d more</li>", len(summary.Errors)-maxListedErrors)
			break
		}
		fmt.Fprintf(&rows, "<li>%s</li>", html.EscapeString(e))
	}

	errorsBlock := `<p class="ok">No row errors.</p>`
	if len(summary.Errors) > 0 {
		errorsBlock = fmt.Sprintf(`<p class="warn">%d rows were skipped:</p><ul>%s</ul>`, len(summary.Errors), rows.String())
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Sample import</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .ok { color: #2d5e3e; }
        .warn { color: #a15c00; }
        td { padding: 2px 12px 2px 0; }
    </style>
</head>
<body>
    <h2>Sample import</h2>
    <table>
        <tr><td>File</td><td>%s</td></tr>
        <tr><td>Imported by</td><td>%s</td></tr>
        <tr><td>Time</td><td>%s</td></tr>
        <tr><td>Samples created</td><td>%d</td></tr>
    </table>
    %s
</body>
</html>`,
		html.EscapeString(summary.Filename),
		html.EscapeString(summary.Username),
		summary.At.Format("2006-01-02 15:04"),
		summary.Imported,
		errorsBlock,
	)
}

func importSummaryText(summary ImportSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sample import\n\n")
	fmt.Fprintf(&b, "File: %s\n", summary.Filename)
	fmt.Fprintf(&b, "Imported by: %s\n", summary.Username)
	fmt.Fprintf(&b, "Time: %s\n", summary.At.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Samples created: %d\n", summary.Imported)

	if len(summary.Errors) > 0 {
		fmt.Fprintf(&b, "\n%d rows were skipped:\n", len(summary.Errors))
		for i, e := range summary.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(&b, "... and %d more\n", len(summary.Errors)-maxListedErrors)
				break
			}
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}
