// Package config assembles the installer and launcher configuration.
//
// Settings come from three places, in increasing order of precedence:
//
//   - the build: DefaultVersion, set with -ldflags at release time
//   - the package manifest, <root>/junie.lua, evaluated in a sandboxed
//     gopher-lua VM with the read-only platform table injected
//   - the environment: <root>/.junie.env (read with godotenv), overlaid by
//     the process environment, decoded with caarlos0/env
//
// A manifest looks like:
//
//	junie = {
//	  version = "667.1",
//	  release_base_url = platform.when(platform.is_linux, "https://mirror.example/junie"),
//	  checksums = {
//	    ["linux-amd64"] = "9f86d0...",
//	  },
//	}
//
// Manifest evaluation errors are returned as *ManifestError. The Lua VM has no
// os, io, debug or module loading, and evaluation is bounded by the context
// passed to Load.
package config
