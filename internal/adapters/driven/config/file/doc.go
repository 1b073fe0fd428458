// Package file provides file-based configuration for docqa.
//
// Settings are read from a TOML file (default ~/.docqa/config.toml) with
// environment overrides under the DOCQA_ prefix. A .env file in the working
// directory is loaded first so API keys can live outside the config file.
//
// Prompt templates are kept as editable text files in the prompts directory
// and fall back to built-in defaults when a file is missing.
package file
