// Package web bundles the storefront templates and browser assets.
package web

import "embed"

// Templates embeds HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds stylesheets and scripts served under /static/.
//
//go:embed static/**/*
var Static embed.FS
