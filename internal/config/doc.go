// Package config loads, validates, and normalizes scanflow configuration.
//
// Configuration is read once at startup from a TOML file, expanded (home
// directory references, relative paths), validated, and then passed as an
// immutable value to every component. The stage directory layout derives
// from paths.work_dir and is exposed through accessor methods so the
// directory names stay in one place.
package config
