// Package cli implements the bankmock command line.
//
// Commands:
//
//	serve    run the HTTP server (migrates first, optionally seeds)
//	migrate  create missing tables and indexes
//	seed     generate fixture records
//	docs     print or validate the OpenAPI document
//	version  print build information
//
// Every command resolves its configuration the same way: defaults, then the
// file named by --config or BANKMOCK_CONFIG, then BANKMOCK_* variables, then
// flags the user actually set.
package cli
