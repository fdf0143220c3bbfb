// Package webui provides the embedded browser front-end for the generation
// API.
package webui

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v5"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS returns the embedded static files rooted at static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Register serves the page at / on e.
func Register(e *echo.Echo) {
	e.GET("/", func(c *echo.Context) error {
		page, err := fs.ReadFile(StaticFS(), "index.html")
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, page)
	})
}
