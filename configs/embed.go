// Package configs embeds the commented configuration template written by
// `bibsearch config init`. The same file serves as project config
// (.bibsearch.yaml) and user config (~/.config/bibsearch/config.yaml).
//
// Precedence (see internal/config Load):
//  1. Defaults (internal/config NewConfig)
//  2. User config
//  3. Project config
//  4. Environment variables (BIBSEARCH_*)
package configs

import _ "embed"

// ConfigTemplate is the commented default configuration.
//
//go:embed bibsearch.example.yaml
var ConfigTemplate string
