// Package config provides configuration structures and utilities for
// WebSentry. It defines the main options for page fetching, content
// screening, report generation, and history persistence, plus per-site
// overrides loaded from the .websentry YAML file.
package config
