// Package config loads and validates backlog-mcp configuration.
//
// Configuration comes from an optional YAML file layered over built-in
// defaults; command-line flags are applied on top by the cmd package.
//
//	gateway:
//	  port: 8000
//	  streamableHttpPath: /mcp
//	  stdio: "backlog-mcp serve --prefix {{ env \"TOOL_PREFIX\" }}"
//	  healthEndpoints: [/healthz]
//	  headers:
//	    X-Served-By: backlog-mcp
//	  corsOrigins: ["*"]
//	  workerTimeout: 2m
//	server:
//	  domain: example.backlog.com
//	  enabledToolsets: [issue, wiki]
//	log:
//	  level: debug
//
// Worker argv, worker environment and header values are rendered with the
// template package before use, so secrets can stay in the environment.
//
// A Watcher can follow the file and report new revisions; the gateway uses it
// to refresh its extra response headers without a restart.
package config
