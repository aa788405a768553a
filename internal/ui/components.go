// Package ui renders the admin console pages and the fragments datastar
// patches into them.
package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *htmlWriter) rawf(format string, args ...any) { h.raw(fmt.Sprintf(format, args...)) }

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.raw("<title>")
		h.text(title)
		h.raw("</title>")
		h.rawf("<script type=\"module\" src=\"%s\"></script>", datastarScript)
		h.raw("<style>")
		h.raw(styles)
		h.raw("</style></head><body>")
		h.render(ctx, body)
		h.raw("</body></html>")
		return h.err
	})
}

// LoginPage is the password form; errMsg is shown above it when set.
func LoginPage(errMsg string) templ.Component {
	return layout("Sign in", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<main class=\"login\"><h1>Button menu admin</h1>")
		if errMsg != "" {
			h.render(ctx, Flash(errMsg, "error"))
		}
		h.raw("<form method=\"post\" action=\"/login\">")
		h.raw("<label for=\"password\">Password</label>")
		h.raw("<input id=\"password\" name=\"password\" type=\"password\" autocomplete=\"current-password\" required>")
		h.raw("<button type=\"submit\">Sign in</button></form></main>")
		return h.err
	}))
}

// TreePage is the main console view.
func TreePage(nodes []*domain.ButtonNode, status domain.BotStatus) templ.Component {
	return layout("Buttons", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<header><h1>Buttons</h1>")
		h.render(ctx, BotBadge(status))
		h.raw("<form method=\"post\" action=\"/logout\"><button type=\"submit\">Sign out</button></form>")
		h.raw("<a href=\"/api/export\">Export</a></header>")
		h.raw("<main data-signals=\"{buttonId: 0, targetId: 0, position: ''}\">")
		h.raw("<div id=\"flash\"></div>")
		h.render(ctx, TreeFragment(nodes))
		h.raw("</main>")
		return h.err
	}))
}

func BotBadge(status domain.BotStatus) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		switch {
		case status.RestartAt != nil:
			h.raw("<span id=\"bot-status\" class=\"badge badge-wait\">restarting at ")
			h.text(status.RestartAt.UTC().Format(time.RFC3339))
			h.raw("</span>")
		case status.IsRunning:
			h.raw("<span id=\"bot-status\" class=\"badge badge-on\">bot running</span>")
		default:
			h.raw("<span id=\"bot-status\" class=\"badge badge-off\">bot stopped</span>")
		}
		return h.err
	})
}

// TreeFragment renders the forest under the #tree element.
func TreeFragment(nodes []*domain.ButtonNode) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<section id=\"tree\">")
		if len(nodes) == 0 {
			h.raw("<p class=\"empty\">No buttons yet.</p>")
		} else {
			writeLevel(h, nodes)
		}
		h.raw("</section>")
		return h.err
	})
}

func writeLevel(h *htmlWriter, nodes []*domain.ButtonNode) {
	h.raw("<ul>")
	for i, n := range nodes {
		h.rawf("<li id=\"button-%d\" class=\"kind-%s", n.ID, n.ButtonType)
		if !n.IsEnabled {
			h.raw(" disabled")
		}
		if n.IsHidden {
			h.raw(" hidden-button")
		}
		h.raw("\"><span class=\"label\">")
		if n.Icon != "" && n.ButtonType != domain.KindBack && n.ButtonType != domain.KindCancel {
			h.text(n.Icon)
			h.raw(" ")
		}
		h.text(n.TextEn)
		h.raw("</span> <span class=\"text-ar\" dir=\"rtl\">")
		h.text(n.TextAr)
		h.raw("</span> <code>")
		h.text(n.ButtonKey)
		h.raw("</code> <small>")
		h.text(string(n.ButtonType))
		if n.IsService {
			h.rawf(" · %.2f", n.Price)
		}
		h.raw("</small>")

		h.raw("<span class=\"actions\">")
		if i > 0 {
			h.rawf("<button data-on:click=\"$buttonId = %d; $targetId = %d; $position = 'before'; @post('/commands/reorder')\">↑</button>",
				n.ID, nodes[i-1].ID)
		}
		if i < len(nodes)-1 {
			h.rawf("<button data-on:click=\"$buttonId = %d; $targetId = %d; $position = 'after'; @post('/commands/reorder')\">↓</button>",
				n.ID, nodes[i+1].ID)
		}
		label := "Disable"
		if !n.IsEnabled {
			label = "Enable"
		}
		h.rawf("<button data-on:click=\"$buttonId = %d; @post('/commands/toggle')\">%s</button>", n.ID, label)
		h.rawf("<button class=\"danger\" data-on:click=\"$buttonId = %d; confirm('Delete this button and everything under it?') && @post('/commands/delete')\">Delete</button>", n.ID)
		h.raw("</span>")

		if len(n.Children) > 0 {
			writeLevel(h, n.Children)
		}
		h.raw("</li>")
	}
	h.raw("</ul>")
}

// Flash renders the #flash message; level is info or error.
func Flash(message, level string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if level != "error" {
			level = "info"
		}
		h.rawf("<div id=\"flash\" class=\"flash flash-%s\" role=\"status\">", level)
		h.text(message)
		h.raw("</div>")
		return h.err
	})
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d2330}
header{display:flex;gap:1rem;align-items:center;padding:.75rem 1.5rem;background:#fff;border-bottom:1px solid #dde1e7}
header h1{font-size:1.2rem;margin:0;flex:1}
main{padding:1.5rem}
.login{max-width:320px;margin:10vh auto;display:flex;flex-direction:column;gap:.5rem}
ul{list-style:none;padding-left:1.25rem;margin:.25rem 0}
li{padding:.2rem 0}
li.disabled>.label{opacity:.5;text-decoration:line-through}
li.hidden-button>.label{font-style:italic}
.text-ar{color:#56607a}
.actions button{margin-left:.25rem;font-size:.8rem}
.danger{color:#b3261e}
.badge{padding:.15rem .5rem;border-radius:1rem;font-size:.8rem}
.badge-on{background:#d7f5dd}.badge-off{background:#fde0dc}.badge-wait{background:#fff1c2}
.flash{padding:.5rem .75rem;border-radius:.25rem;margin-bottom:1rem}
.flash-info{background:#e3f0ff}.flash-error{background:#fde0dc}
`
