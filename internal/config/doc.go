// Package config provides the configuration of greenbutton: browser and
// portal settings, timeouts, credentials sources and report preferences.
//
// Values come from defaults, then the optional .greenbutton YAML file,
// then command-line flags. Credentials come from flags, standard input or
// the PGE_USERNAME and PGE_PASSWORD environment variables (a .env file is
// loaded first). Credentials are never read from or written to the YAML
// file.
package config
