package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// Deployments may overwrite embed_config.yaml with site defaults before
// compiling; the checked-in copy only sets comments.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
