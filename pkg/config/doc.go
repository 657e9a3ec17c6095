// Package config provides the server configuration and its loading rules.
//
// Values are layered, later layers winning:
//
//	defaults  ->  config file (YAML or JSON)  ->  BANKMOCK_* environment  ->  CLI flags
//
// Config.Sources records which layer last set each key so `bankmock serve`
// can report where a value came from. Flags are applied by the cli package
// through Config.Set.
//
// A minimal YAML file:
//
//	server:
//	  addr: ":8000"
//	database:
//	  path: "bank.db"
//	pagination:
//	  defaultPageSize: 10
//	  maxPageSize: 100
//	  nextPage: lookahead
//	log:
//	  level: debug
//	  format: json
package config
