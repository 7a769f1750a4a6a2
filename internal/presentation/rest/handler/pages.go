package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageGateway  = "gateway.html"
	pageConfirm  = "confirm.html"
	pageAddMoney = "add_money.html"
	pageHistory  = "history.html"
)

// Pages サーバー側で描画するHTMLページ
type Pages struct {
	templates map[string]*template.Template
}

// NewPages 埋め込みテンプレートを読み込む
func NewPages() (*Pages, error) {
	p := &Pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{pageGateway, pageConfirm, pageAddMoney, pageHistory} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

// Render ページを描画してレスポンスに書き込む
// 描画が完了してから書き込む
func (p *Pages) Render(c echo.Context, status int, name string, data interface{}) error {
	t, ok := p.templates[name]
	if !ok {
		return fmt.Errorf("unknown page: %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// renderOK 200で描画する
func (p *Pages) renderOK(c echo.Context, name string, data interface{}) error {
	return p.Render(c, http.StatusOK, name, data)
}
