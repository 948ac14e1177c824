// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Parsing is backed by github.com/caarlos0/env field tags. Each struct type
// is parsed exactly once per process and cached, so repeated loads are cheap
// and consistent across components.
//
// # Usage
//
//	var cfg session.Config
//	config.MustLoad(&cfg)
package config
