package handlers

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// TemplateFuncs are the helpers available to every page template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"weight": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
		"join": strings.Join,
		"has": func(list []string, v string) bool {
			for _, s := range list {
				if s == v {
					return true
				}
			}
			return false
		},
		"customerName": func(names map[int]string, id int) string {
			if name, ok := names[id]; ok {
				return name
			}
			return fmt.Sprintf("#%d", id)
		},
		"selected": func(selected *int, id int) bool {
			return selected != nil && *selected == id
		},
		"timeAgo": func(t *time.Time) string {
			if t == nil {
				return "Never"
			}
			duration := time.Since(*t)
			switch {
			case duration < time.Minute:
				return "Just now"
			case duration < time.Hour:
				return fmt.Sprintf("%d minutes ago", int(duration.Minutes()))
			case duration < 24*time.Hour:
				return fmt.Sprintf("%d hours ago", int(duration.Hours()))
			case duration < 7*24*time.Hour:
				return fmt.Sprintf("%d days ago", int(duration.Hours()/24))
			default:
				return t.Format("Jan 2")
			}
		},
	}
}
