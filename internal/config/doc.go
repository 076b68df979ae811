// Package config provides configuration structures and utilities for
// sitemirror. It defines the crawl options taken from the command line,
// the optional per-site YAML file and the XDG locations used for run history.
package config
