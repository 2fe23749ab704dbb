// Package web embeds the UI assets so the app ships as one binary.
package web

import "embed"

// TemplatesFS holds the server-rendered pages and HTMX fragments.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds stylesheets and browser-side scripts.
//
//go:embed static/*
var StaticFS embed.FS
