// Package executor implements the per-step execution contract: resolve the
// system instruction, build the user prompt from the step template and the
// accumulated context, assemble the conversation, invoke the text-completion
// capability, extract the fenced payload and persist it.
//
// There is exactly one step variant, so the Executor is a single concrete
// type parametrized by config.StepSpec rather than a polymorphic hierarchy.
// Failures are explicit *StepError values classified by kind; degradations
// (missing template, missing placeholder) are logged warnings that reduce the
// prompt instead of failing the step.
package executor
