// Package model defines the provider-agnostic abstractions for driving a
// language model with tool calling, plus a scripted MockModel for tests.
//
// Providers (OpenAI, Anthropic) live in sub-packages and implement Model so
// the assistant stays decoupled from vendor SDKs.
package model
