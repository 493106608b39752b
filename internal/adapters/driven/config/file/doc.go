// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.mnemolet/config.toml
//   - PromptStore: user-editable prompt templates
package file
