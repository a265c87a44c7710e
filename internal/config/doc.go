// Package config loads runtime configuration from multiple sources (YAML
// files, an envoverlay environment overlay, CLI flags) with precedence:
// CLI flags > Environment overlay > YAML config > Defaults. It exposes
// strongly typed settings to the rest of the application.
package config
