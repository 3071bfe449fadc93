// Package model defines the text-completion capability boundary: a normalized
// Request/Response pair and the Model interface the step executor drives.
//
// Provider adapters live in subpackages (model/openai, model/anthropic) and
// translate the normalized structures into vendor SDK calls. Optional
// generation parameters are pointer fields so adapters can distinguish unset
// from zero and omit them from the wire request.
//
// Retry and timeout policy belongs to the adapters (or the SDKs beneath
// them); callers treat any Generate error as final for the requesting step.
package model
