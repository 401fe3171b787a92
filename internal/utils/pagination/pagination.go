// Package pagination renders the page navigation shared by every list view.
package pagination

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
)

// window is the number of page links shown on each side of the current page.
const window = 2

// Render returns navigation markup for current of total pages. extra query
// parameters are carried on every link; any "page" key in extra is replaced.
// Nothing is rendered for a single page or an empty result.
func Render(current, total int, extra url.Values) template.HTML {
	if total <= 1 {
		return ""
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	var b strings.Builder
	b.WriteString(`<nav class="pagination"><ul>`)

	if current > 1 {
		link(&b, extra, current-1, "&laquo;", "prev")
	}

	start, end := current-window, current+window
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}

	if start > 1 {
		link(&b, extra, 1, "1", "")
		if start > 2 {
			b.WriteString(`<li class="gap">&hellip;</li>`)
		}
	}
	for p := start; p <= end; p++ {
		if p == current {
			b.WriteString(`<li class="active"><span>` + strconv.Itoa(p) + `</span></li>`)
			continue
		}
		link(&b, extra, p, strconv.Itoa(p), "")
	}
	if end < total {
		if end < total-1 {
			b.WriteString(`<li class="gap">&hellip;</li>`)
		}
		link(&b, extra, total, strconv.Itoa(total), "")
	}

	if current < total {
		link(&b, extra, current+1, "&raquo;", "next")
	}

	b.WriteString(`</ul></nav>`)
	return template.HTML(b.String())
}

// link writes one page link. label is trusted markup.
func link(b *strings.Builder, extra url.Values, page int, label, rel string) {
	q := url.Values{}
	for k, v := range extra {
		if k == "page" {
			continue
		}
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))

	b.WriteString(`<li><a href="?`)
	b.WriteString(template.HTMLEscapeString(q.Encode()))
	b.WriteString(`"`)
	if rel != "" {
		b.WriteString(` rel="` + rel + `"`)
	}
	b.WriteString(`>` + label + `</a></li>`)
}
